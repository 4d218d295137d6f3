package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Lllllllleong/jobboard/internal/app"
	"github.com/Lllllllleong/jobboard/internal/async"
	"github.com/Lllllllleong/jobboard/internal/config"
)

// PasswordEnv names the variable read for the sign-in password before prompting.
const PasswordEnv = "JOBBOARD_PASSWORD"

type rootOptions struct {
	envFile string
	email   string
	app     *app.App
}

func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "jobboard",
		Short:         "Browse and post jobs on the job board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.app == nil {
				return nil
			}
			return opts.app.Close()
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file with configuration")
	root.PersistentFlags().StringVar(&opts.email, "email", "", "Sign in as this user before running the command")

	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newJobsCmd(opts))
	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newSnapshotCmd(opts))
	return root
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}
	logger := app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	o.app = a

	if o.email == "" {
		return nil
	}
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	if _, err := a.Profiles.SignIn(cmd.Context(), o.email, password); err != nil {
		return err
	}
	if _, err := a.Profiles.RefreshDisplayName(cmd.Context()); err != nil {
		logger.Warn("Could not refresh display name", "error", err)
	}
	return nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	if pw, ok := os.LookupEnv(PasswordEnv); ok {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password: set %s or run interactively", PasswordEnv)
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(pw), "\r\n"), nil
}

// await runs cb with the future's result on a loop owned by the calling goroutine,
// the way a UI thread would receive it.
func await[T any](ctx context.Context, f *async.Future[T], cb func(T) error) error {
	loop := async.NewLoop(1)
	var result error
	f.Then(loop, func(v T, err error) {
		defer loop.Stop()
		if err != nil {
			result = err
			return
		}
		result = cb(v)
	})
	if err := loop.Run(ctx); err != nil {
		return err
	}
	return result
}
