// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models_cmd.go - The "models" command.
//
// Examples:
//
//	vedantra models              Local catalog
//	vedantra models --remote     Ask the backend
//	vedantra models --json

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/config"
	"github.com/jeranaias/vedantra/internal/model"
)

func (a *App) runModels(ctx context.Context, cfg *config.Config, args Args) error {
	cmd := args.Cmd
	if err := rejectUnknown(cmd, "models", "remote", "json"); err != nil {
		return err
	}

	listing := backend.ModelsResponse{
		Default: cfg.Chat.DefaultModel,
		Models:  cfg.Catalog().Models(),
	}
	if cmd.BoolFlag("remote") {
		client := backend.NewClient(backend.Config{
			BaseURL:        cfg.Backend.URL,
			ConnectTimeout: cfg.ConnectTimeout(),
			RequestTimeout: cfg.RequestTimeout(),
		})
		remote, err := client.Models(ctx)
		if err != nil {
			return fmt.Errorf("models: %w", err)
		}
		listing = *remote
	}

	if cmd.BoolFlag("json") {
		enc := json.NewEncoder(a.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}
	printModels(a, listing.Models, listing.Default)
	return nil
}

func printModels(a *App, models []model.ModelInfo, current string) {
	tw := tabwriter.NewWriter(a.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tDESCRIPTION")
	for _, m := range models {
		marker := ""
		if m.ID == current {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, m.ID, m.Name, m.Description)
	}
	tw.Flush()
}
