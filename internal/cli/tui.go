// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/jeranaias/askq/internal/config"
	"github.com/jeranaias/askq/internal/session"
	"github.com/jeranaias/askq/internal/ui/chat"
	"github.com/jeranaias/askq/internal/ui/styles"
)

// runTUI opens the full-screen chat interface and blocks until it exits.
func runTUI(ctx context.Context, a *app) error {
	if err := RequiresTTY("open the chat screen"); err != nil {
		return err
	}

	cfg := config.Global()
	sess := session.New(a.client, session.WithLogger(a.logger.Logger))
	m := chat.New(sess, styles.NewTheme(), chat.Options{
		Placeholder:  cfg.UI.Placeholder,
		SidebarWidth: cfg.UI.SidebarWidth,
		Client:       a.client,
		Logger:       a.logger.Logger,
	})

	programOpts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if cfg.UI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, programOpts...)

	stop := chat.Bridge(sess, p.Send)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := config.Watch(ctx, a.cfgPath, func(cfg *config.Config, err error) {
		p.Send(a.reloaded(cfg, err))
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("config live reload disabled")
	}

	a.logger.Info().Str("endpoint", a.client.EndpointRedacted()).Msg("chat screen started")
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run chat screen")
	}
	return nil
}

// reloaded re-applies command-line flags to a config read by the watcher and
// publishes it as the global config when it is valid.
func (a *app) reloaded(cfg *config.Config, err error) chat.ConfigReloadedMsg {
	if err == nil {
		err = a.opts.applyFlags(cfg)
	}
	if err != nil {
		return chat.ConfigReloadedMsg{Err: err}
	}
	config.SetGlobal(cfg)
	return chat.ConfigReloadedMsg{Config: cfg}
}
