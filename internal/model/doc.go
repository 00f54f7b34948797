// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation data structures.
//
// # Key Types
//
//   - Message: one finalized chat entry (role, content, timestamp, model)
//   - Conversation: the ordered, mutex-guarded message log
//   - Catalog: the ordered list of selectable models with display names
//   - Role: user or assistant
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.SeedWelcome(model.DefaultModel)
//	conv.Append(model.NewUserMessage("Hello!", model.DefaultModel))
//
//	cat := model.DefaultCatalog()
//	fmt.Println(cat.DisplayName(model.DefaultModel))
package model
