package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/assistgate/assistgate/pkg/assistant"
	"github.com/assistgate/assistgate/pkg/audit"
	"github.com/assistgate/assistgate/pkg/config"
	"github.com/assistgate/assistgate/pkg/hostcache"
	"github.com/assistgate/assistgate/pkg/proxy"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant proxy server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			client := assistant.New(assistant.Options{
				APIKey:          cfg.Upstream.APIKey,
				APIVersion:      cfg.Upstream.APIVersion,
				ControlPlaneURL: cfg.Upstream.ControlPlaneURL,
				Timeout:         cfg.Upstream.Timeout,
				MaxRetries:      cfg.Upstream.MaxRetries,
			})
			resolver := assistant.NewResolver(client, hostcache.New(cfg.HostCache.TTL))

			var auditor *audit.Logger
			if cfg.Audit.Enabled {
				auditor, err = audit.New(cfg.Audit)
				if err != nil {
					return fmt.Errorf("init audit log: %w", err)
				}
				defer func() { _ = auditor.Close() }()
			}

			srv := proxy.New(cfg, client, resolver, auditor)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("starting assistgate with config: %s", configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "assistgate.yaml", "path to config file")
	return cmd
}
