package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"mcpadmin/worker"

	"github.com/spf13/cobra"
)

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the loopback gateway and the silent token refresher",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.Session.Bootstrap(ctx)
			if err != nil {
				a.logger.Warnf("Initial bootstrap failed: %v", err)
			} else {
				a.logger.Infof("Session %s", state.Status)
			}

			refresher, err := worker.NewService(a.Session, a.config, a.logger)
			if err != nil {
				return err
			}
			if err := refresher.StartInBackground(); err != nil {
				return err
			}
			defer refresher.Stop()

			return a.Serve(ctx)
		},
	}

	cmd.Flags().String("gateway-host", "", "gateway listen host")
	cmd.Flags().String("gateway-port", "", "gateway listen port")
	return cmd
}
