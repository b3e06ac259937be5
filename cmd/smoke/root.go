package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steepan/devops-project/internal/remote"
	"github.com/steepan/devops-project/internal/smoke"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetDefault("timeout", remote.DefaultTimeout)
	v.SetDefault("health-path", "/health")

	// Environment variables support: SMOKE_URL, SMOKE_TIMEOUT, SMOKE_HEALTH_PATH, ...
	v.SetEnvPrefix("SMOKE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "smoke",
		Short:         "Check that a deployed greeting service answers GET / with the expected greeting",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(v.GetString("url"))
			if url == "" {
				return errors.New("--url (or SMOKE_URL) is required")
			}
			verbose := v.GetBool("verbose")

			client, err := remote.New(remote.Config{
				BaseURL:       url,
				Timeout:       v.GetDuration("timeout"),
				Insecure:      v.GetBool("insecure"),
				MinTLSVersion: v.GetString("min-tls"),
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if wait := v.GetDuration("wait"); wait > 0 {
				healthPath := v.GetString("health-path")
				if verbose {
					fmt.Fprintf(cmd.ErrOrStderr(), "waiting up to %s for %s%s\n", wait, url, healthPath)
				}
				if err := client.WaitHealthy(ctx, healthPath, wait, remote.DefaultWaitInterval); err != nil {
					return err
				}
			}

			start := time.Now()
			res, err := smoke.Check(ctx, client)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "smoke check passed: GET %s%s -> %d (%d bytes, %s)\n",
				strings.TrimRight(url, "/"), smoke.RootPath, res.StatusCode, res.BodySize,
				time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("url", "", "base URL of the deployed service, e.g. http://localhost:8080")
	flags.Duration("timeout", v.GetDuration("timeout"), "request timeout")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	flags.String("min-tls", "", "minimum TLS version (1.2, 1.3)")
	flags.Duration("wait", 0, "wait up to this long for the health path to return 200 first (0 disables)")
	flags.String("health-path", v.GetString("health-path"), "path polled by --wait")
	flags.BoolP("verbose", "v", false, "verbose output")
	_ = v.BindPFlags(flags)

	return cmd
}
