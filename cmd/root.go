package cmd

import (
	"context"
	"fmt"

	"mcpadmin/controller"
	"mcpadmin/models"
	"mcpadmin/utils"
	"mcpadmin/utils/logger"

	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// options are the persistent flags shared by every command
type options struct {
	configFile string
	output     string
}

// app is what a command needs once configuration is loaded
type app struct {
	*controller.Controller
	config *models.Config
	logger logger.Logger
}

// NewRootCommand builds the mcpadmin command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "mcpadmin",
		Short: "Session client for the MCP administration backend",
		Long: `mcpadmin signs in to the MCP administration backend, keeps track of the
active organization and role, and answers permission questions for it.

The serve command exposes the same session over a loopback HTTP gateway for a
local dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is ./mcpadmin.yaml or $HOME/.config/mcpadmin/mcpadmin.yaml)")
	flags.StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")
	flags.String("api-url", "", "backend base URL")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("storage-backend", "", "client storage: file, memory, redis, dynamodb")
	flags.String("storage-path", "", "state file for the file storage backend")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.output != outputText && opts.output != outputJSON {
			return fmt.Errorf("unknown output format %q", opts.output)
		}
		return nil
	}

	root.AddCommand(
		newLoginCommand(opts),
		newSignupCommand(opts),
		newLogoutCommand(opts),
		newStatusCommand(opts),
		newOrgCommand(opts),
		newRoleCommand(opts),
		newCanCommand(opts),
		newPermissionsCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// loadApp reads configuration and wires the application. Logs go to stderr so
// stdout stays parseable.
func loadApp(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := utils.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log := logger.NewLoggerWithOutput(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	log.Debugf("Config loaded: %s", utils.PrintPrettyJSON(cfg))

	ctrl, err := controller.NewController(contextOf(cmd), cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{Controller: ctrl, config: cfg, logger: log}, nil
}

// signedIn bootstraps the session and fails unless it is authenticated
func (a *app) signedIn(ctx context.Context) (models.SessionState, error) {
	state, err := a.Session.Bootstrap(ctx)
	if err != nil {
		return state, err
	}
	if !state.Status.Authenticated() {
		return state, fmt.Errorf("%w: run 'mcpadmin login' first", models.ErrNotAuthenticated)
	}
	return state, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
