package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portfolio/internal/client"
	"portfolio/internal/log"
)

const (
	envAPI      = "PORTFOLIOCTL_API"
	envToken    = "PORTFOLIOCTL_TOKEN"
	envPassword = "PORTFOLIOCTL_PASSWORD"
	defaultAPI  = "http://localhost:8080/api"
)

type globalOptions struct {
	api     string
	token   string
	bucket  string
	verbose bool
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.api, client.WithToken(o.token))
}

func (o *globalOptions) logger() zerolog.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return log.New("cli", level)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Manage portfolio content from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.api, "api", envOr(envAPI, defaultAPI), "API base URL (env "+envAPI+")")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(envToken), "access token (env "+envToken+")")
	root.PersistentFlags().StringVar(&opts.bucket, "bucket", "media", "storage bucket name used in asset URLs")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log workflow steps")

	root.AddCommand(
		newLoginCmd(opts),
		newAssetsCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
	)
	return root
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(envPassword)
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or %s) are required", envPassword)
			}
			session, err := opts.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "signed in as %s (%s), token expires %s\n",
				session.Operator.Email, session.Operator.Role, session.ExpiresAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(cmd.OutOrStdout(), "export %s=%s\n", envToken, session.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	cmd.Flags().StringVar(&password, "password", "", "operator password (env "+envPassword+")")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
