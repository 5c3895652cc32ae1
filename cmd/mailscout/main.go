// Command mailscout finds and verifies email addresses, either as a
// one-shot CLI run or as an HTTP service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bitinho/mailscout"
	"github.com/bitinho/mailscout/config"
	"github.com/bitinho/mailscout/httpapi"
	"github.com/bitinho/mailscout/metrics"
)

var (
	flagFirst     string
	flagMiddle    string
	flagLast      string
	flagExtras    []string
	flagLight     bool
	flagLimit     int
	flagShowAll   bool
	flagProbeRate float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mailscout",
		Short:         "Find and verify email addresses at a domain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(findCmd(), validateCmd(), serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func findCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [domain]",
		Short: "Generate name-based candidates and probe which ones exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFirst == "" {
				return fmt.Errorf("--first is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			f, err := mailscout.New(ctx, args[0], mailscout.Options{
				LightMode:      flagLight,
				CandidateLimit: flagLimit,
				ProbeRate:      flagProbeRate,
			})
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			hosts, err := f.Hosts(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Domain: %s\n", f.Domain())
			for _, h := range hosts {
				fmt.Printf("  MX %d %s\n", h.Pref, h.Host)
			}
			if adv := f.Advisory(); adv.Disposable || adv.Suggestion != "" {
				if adv.Disposable {
					fmt.Println("  warning: disposable email provider")
				}
				if adv.Suggestion != "" {
					fmt.Printf("  did you mean %s?\n", adv.Suggestion)
				}
			}

			report, err := f.Find(ctx, mailscout.Name{
				First:  flagFirst,
				Middle: flagMiddle,
				Last:   flagLast,
				Extras: flagExtras,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\nTested %d candidates\n", report.TotalTested)
			if report.CatchAll {
				fmt.Println("Domain is catch-all: every address is accepted, results are not diagnostic")
			}
			for _, email := range report.Confirmed {
				fmt.Printf("  confirmed: %s\n", email)
			}
			if len(report.Confirmed) == 0 {
				fmt.Println("  no address confirmed")
			}
			if !flagLight && mostlyBlocklisted(report.Results) {
				fmt.Println("Most probes were blocked by a blocklist; your IP may be listed. Try again with --light.")
			}
			if flagShowAll {
				fmt.Println()
				for _, res := range report.Rejected() {
					fmt.Printf("  rejected: %s (%s)\n", res.Email, res.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFirst, "first", "", "first name (required)")
	cmd.Flags().StringVar(&flagMiddle, "middle", "", "middle name")
	cmd.Flags().StringVar(&flagLast, "last", "", "last name")
	cmd.Flags().StringSliceVar(&flagExtras, "extra", nil, "extra tokens (company, nickname); repeatable")
	cmd.Flags().BoolVar(&flagLight, "light", false, "skip SMTP probing, check syntax and MX only")
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "cap on generated candidates (default 1000)")
	cmd.Flags().BoolVar(&flagShowAll, "all", false, "also print rejected candidates with reasons")
	cmd.Flags().Float64Var(&flagProbeRate, "rate", 0, "max SMTP dials per second (default unpaced)")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [email]",
		Short: "Check whether one address is accepted by its mail exchangers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			email := args[0]
			f, err := mailscout.New(ctx, domainOf(email), mailscout.Options{LightMode: flagLight})
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			res := f.Validate(ctx, email)
			if res.Accepted {
				fmt.Printf("%s: accepted (%s)\n", res.Email, res.Reason)
			} else {
				fmt.Printf("%s: rejected (%s)\n", res.Email, res.Reason)
			}
			if f.IsCatchAll(ctx) {
				fmt.Println("warning: domain is catch-all, acceptance is not diagnostic")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagLight, "light", false, "skip SMTP probing, check syntax and MX only")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logrus.New()
			level, _ := logrus.ParseLevel(cfg.LogLevel)
			log.SetLevel(level)
			log.SetFormatter(&logrus.JSONFormatter{})

			reg := prometheus.NewRegistry()
			opts := cfg.Options()
			opts.Metrics = metrics.New(reg)

			router := httpapi.NewRouter(httpapi.NewHandler(opts, log), reg)
			srv := httpapi.NewServer(cfg.Addr, router)

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", cfg.Addr).Info("starting mailscout API")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// mostlyBlocklisted reports whether at least half of the probe outcomes
// were rejected by a blocklist, which means the run says more about the
// sending IP than about the candidates.
func mostlyBlocklisted(results []mailscout.ValidationResult) bool {
	if len(results) == 0 {
		return false
	}
	blocked := 0
	for _, res := range results {
		if strings.Contains(res.Reason, "blocklisted") {
			blocked++
		}
	}
	return blocked*2 >= len(results)
}

// domainOf returns the part after the last '@', or "".
func domainOf(email string) string {
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			return email[i+1:]
		}
	}
	return ""
}
