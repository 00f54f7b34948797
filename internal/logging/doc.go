// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging sets up structured logging with log/slog.
//
// Records logged with a context pick up the component, cycle and request
// ids stored in it by WithComponent, WithCycleID and WithRequestID.
//
// # Usage
//
//	logger := logging.Setup(logging.Config{Level: "debug", Format: "text"}, os.Stderr)
//	ctx = logging.WithComponent(ctx, "chat")
//	logger.InfoContext(ctx, "cycle finished", "bytes", n)
package logging
