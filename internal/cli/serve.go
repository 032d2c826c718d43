package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/arbiter/internal/config"
	"github.com/soyeahso/arbiter/internal/dispute"
	"github.com/soyeahso/arbiter/internal/gateway"
	"github.com/soyeahso/arbiter/internal/oracle"
	"github.com/soyeahso/arbiter/internal/payment"
	"github.com/soyeahso/arbiter/internal/shipment"
	"github.com/soyeahso/arbiter/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the arbiter server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			dbPath := cfg.Store.Path
			if dbPath == "" {
				dbPath = paths.Database
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			log.Info().Str("path", dbPath).Msg("database open")

			facts := shipment.NewDBProvider(db, log)
			if cfg.Shipment.SeedFile != "" {
				n, err := facts.ImportSeed(cfg.Shipment.SeedFile)
				if err != nil {
					return fmt.Errorf("importing shipment seed: %w", err)
				}
				if n > 0 {
					log.Info().Int("orders", n).Str("path", cfg.Shipment.SeedFile).Msg("shipment seed imported")
				}
			}

			var o oracle.Oracle
			switch cfg.Oracle.Provider {
			case "mock":
				o = &oracle.Mock{}
				log.Warn().Msg("using the mock oracle; rulings are canned")
			default:
				o = oracle.NewClaudeClient(
					cfg.Oracle.APIKey,
					cfg.Oracle.Model,
					cfg.Oracle.BaseURL,
					time.Duration(cfg.Oracle.TimeoutSeconds)*time.Second,
				)
			}
			log.Info().Str("oracle", o.Name()).Msg("oracle configured")

			var disburser payment.Disburser
			if cfg.Payment.MCPURL != "" {
				disburser = payment.NewLocusClient(payment.LocusConfig{
					MCPURL:       cfg.Payment.MCPURL,
					APIKey:       cfg.Payment.APIKey,
					TokenURL:     cfg.Payment.TokenURL,
					ClientID:     cfg.Payment.ClientID,
					ClientSecret: cfg.Payment.ClientSecret,
					Scopes:       cfg.Payment.Scopes,
					Timeout:      time.Duration(cfg.Payment.TimeoutSeconds) * time.Second,
				}, log)
				log.Info().Str("rail", disburser.Name()).Msg("payment rail configured")
			} else {
				log.Warn().Msg("no payment rail configured; approved refunds will not be disbursed")
			}

			sessions := dispute.NewSessionStore(
				time.Duration(cfg.Dispute.SessionIdleMinutes)*time.Minute, log)
			turns := dispute.NewTurnController(
				o, cfg.Dispute.MaxSteps, cfg.Oracle.MaxTokens,
				time.Duration(cfg.Oracle.TimeoutSeconds)*time.Second, log)
			refunds := dispute.NewRefundTrigger(
				disburser, cfg.Dispute.MinRefundConfidence, cfg.Dispute.MaxSteps, log)
			audit := store.NewDecisionLog(db)
			hub := gateway.NewHub(log, cfg.Server.AllowedOrigins)

			orch := dispute.NewOrchestrator(
				sessions,
				dispute.NewAggregator(facts, log),
				turns,
				refunds,
				log,
				dispute.WithAudit(audit),
				dispute.WithEvents(hub),
			)

			srv := gateway.New(cfg, log, orch,
				gateway.WithHub(hub),
				gateway.WithAudit(audit),
			)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	cmd.Flags().StringVar(&bind, "bind", "", "bind mode: loopback, lan, custom (overrides config)")

	return cmd
}
