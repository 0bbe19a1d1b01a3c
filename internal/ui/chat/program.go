// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/riverchat-tui/internal/config"
	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/transcript"
)

// Run starts the full-screen chat interface and blocks until the user quits.
//
// The engine's change callback is wired to the program so transcript
// mutations made on the streaming goroutine repaint the view. Configs
// arriving on reloads (the config file watcher) are forwarded the same way;
// a nil channel disables live reload.
func Run(engine *transcript.Engine, cfg *config.Config, identity model.Identity, reloads <-chan *config.Config) error {
	m := New(engine, cfg, identity)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	engine.SetOnChange(func() {
		p.Send(EngineUpdatedMsg{})
	})
	defer engine.SetOnChange(nil)

	if reloads != nil {
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case next, ok := <-reloads:
					if !ok {
						return
					}
					p.Send(ConfigReloadedMsg{Config: next})
				case <-done:
					return
				}
			}
		}()
	}

	_, err := p.Run()
	return err
}
