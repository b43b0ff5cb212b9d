package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"mcpadmin/models"

	"github.com/spf13/cobra"
)

// readSecret returns value, or one line read from in when value is empty
func readSecret(in io.Reader, out io.Writer, prompt, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCommand(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password. The session cookie is kept in client
storage so later commands stay signed in.

Examples:
  mcpadmin login --email ada@example.com
  echo "$PASSWORD" | mcpadmin login --email ada@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ", password)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := contextOf(cmd)
			if err := a.Services.GetAuthService().Login(ctx, models.LoginRequest{Email: email, Password: pw}); err != nil {
				return err
			}
			state, err := a.signedIn(ctx)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), opts.output, state)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignupCommand(opts *options) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ", password)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := contextOf(cmd)
			req := models.RegisterRequest{Name: name, Email: email, Password: pw}
			if err := a.Services.GetAuthService().Register(ctx, req); err != nil {
				return err
			}
			state, err := a.signedIn(ctx)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), opts.output, state)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password, at least 8 characters (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and wipe client storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.Session.Logout(contextOf(cmd))
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), opts.output, state)
			return nil
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.Session.Bootstrap(contextOf(cmd))
			printState(cmd.OutOrStdout(), opts.output, state)
			return err
		},
	}
}
