// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the riverchat TUI.
//
// The package exposes an adaptive color palette and a Theme type that
// bundles every Lip Gloss style the interface uses. Two themes exist:
// "river", the default full-color theme, and "mono" for terminals with
// limited color support.
package styles
