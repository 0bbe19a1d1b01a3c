// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "github.com/jeranaias/riverchat-tui/internal/model"

// modelMode normalizes a --mode flag value; unknown values fall back to chat.
func modelMode(s string) model.Mode {
	m := model.Mode(s)
	if !m.Valid() {
		return model.ModeChat
	}
	return m
}
