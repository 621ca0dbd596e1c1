package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/novatasks/nova/internal/adapter"
	"github.com/novatasks/nova/internal/daemon"
	"github.com/novatasks/nova/internal/daemon/components"
	"github.com/novatasks/nova/internal/ingress"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start Nova as a long-running service",
	Long:  `Starts Nova as a long-running service using component lifecycle orchestration. It polls the chat transport, serves a health endpoint, and sweeps idle sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		daemonMgr, err := daemon.NewDaemon(cfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon manager: %w", err)
		}

		sessionsComp := components.NewSessionsComponent(&cfg.Session)
		ingressComp := components.NewIngressComponent(&cfg.Ingress)

		eventHandler := func(evtCtx context.Context, source string, msg adapter.InboundMessage) error {
			ing := ingressComp.GetIngress()
			if ing == nil {
				return fmt.Errorf("ingress not initialized")
			}

			evt := ingress.NewEvent(source, msg)
			return ing.Submit(evtCtx, &evt)
		}

		var (
			inputs []adapter.InputAdapter
			out    adapter.OutputAdapter
		)
		if cfg.Adapters.Telegram.Enabled {
			tg := adapter.NewTelegramAdapter(cfg.Adapters.Telegram.BotToken, eventHandler, cfg.Adapters.Telegram.UpdateTimeout)
			inputs = append(inputs, tg)
			out = tg
		}
		if cfg.Adapters.Slack.Enabled {
			sl := adapter.NewSlackAdapter(cfg.Adapters.Slack.Port, cfg.Adapters.Slack.SigningSecret, cfg.Adapters.Slack.BotToken, eventHandler)
			inputs = append(inputs, sl)
			if out == nil {
				out = sl
			}
		}
		if out == nil {
			return fmt.Errorf("no adapter enabled; enable telegram or slack in the config")
		}

		orchComp := components.NewOrchestratorComponent(cfg, sessionsComp, ingressComp, out)
		workersComp := components.NewWorkersComponent(cfg, ingressComp, orchComp, sessionsComp)
		adaptersComp := components.NewAdaptersComponent(inputs...)
		httpComp := components.NewHTTPServerComponent(daemonMgr, &cfg.Server)

		daemonMgr.AddComponent(sessionsComp)
		daemonMgr.AddComponent(ingressComp)
		daemonMgr.AddComponent(orchComp)
		daemonMgr.AddComponent(workersComp)
		daemonMgr.AddComponent(adaptersComp)
		daemonMgr.AddComponent(httpComp)

		slog.Info("Nova daemon starting up...", "port", cfg.Server.Port)
		err = daemonMgr.Start(context.Background())
		if err != nil {
			// Cancellation via signal/context is a graceful shutdown case for CLI.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("Nova daemon stopped gracefully")
				return nil
			}
			return fmt.Errorf("daemon failed: %w", err)
		}

		slog.Info("Nova daemon stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
