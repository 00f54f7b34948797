// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The "serve" command: run the backend proxy.
//
// Examples:
//
//	NVIDIA_API_KEY=... vedantra serve
//	vedantra serve --port 9000 --host 0.0.0.0
//
// The upstream key is read from the environment variable named by
// server.upstream.api_key_env (a .env file works too). Without it the
// server still starts, answers /health and /api/models, and rejects chat
// requests with 503.

package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/jeranaias/vedantra/internal/config"
	"github.com/jeranaias/vedantra/internal/logging"
	"github.com/jeranaias/vedantra/internal/server"
)

func (a *App) runServe(ctx context.Context, cfg *config.Config, args Args) error {
	cmd := args.Cmd
	if err := rejectUnknown(cmd, "serve", "port", "p", "host"); err != nil {
		return err
	}
	port, set, err := cmd.FlagInt("port", "p")
	if err != nil {
		return err
	}
	if set {
		if port < 1 || port > 65535 {
			return NewUsageError("serve: --port must be between 1 and 65535")
		}
		cfg.Server.Port = port
	}
	if host := cmd.Flag("host"); host != "" {
		cfg.Server.Host = host
	}

	logger := logging.Setup(cfg.Log, a.Stderr)
	ctx = logging.WithComponent(ctx, "server")

	if logging.ParseLevel(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(a.serverConfig(ctx, cfg, logger))
	return srv.Run(ctx)
}

// serverConfig maps the [server] section onto server.Config.
func (a *App) serverConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) server.Config {
	var completer server.Completer
	keyEnv := cfg.Server.Upstream.APIKeyEnv
	if key := os.Getenv(keyEnv); key != "" {
		completer = server.NewOpenAICompleter(cfg.Server.Upstream.BaseURL, key)
	} else {
		logger.WarnContext(ctx, "upstream API key not set, chat requests will fail", "env", keyEnv)
	}

	cors := server.DefaultCORSConfig()
	cors.AllowedOrigins = append(cors.AllowedOrigins, cfg.Server.AllowedOrigins...)

	return server.Config{
		Addr:           cfg.ServerAddr(),
		Version:        Version,
		Catalog:        cfg.Catalog(),
		Completer:      completer,
		RPS:            cfg.Server.RateLimit.RPS,
		Burst:          cfg.Server.RateLimit.Burst,
		CORS:           cors,
		TrustedProxies: cfg.Server.TrustedProxies,
		Logger:         logger,
	}
}
