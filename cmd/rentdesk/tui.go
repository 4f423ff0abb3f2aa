package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lachiem1/rentdesk/internal/syncer"
	"github.com/lachiem1/rentdesk/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive client (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, opts, appOptions{logToFile: true, withDB: true})
	if err != nil {
		return err
	}
	defer a.Close()

	events := make(chan syncer.Event, 32)
	sync, err := syncer.NewRentersService(a.db, a.client, a.cfg.UI.SyncInterval, a.logger, func(evt syncer.Event) {
		select {
		case events <- evt:
		default:
			a.logger.Debug("sync event dropped", zap.String("op", "sync"), zap.String("collection", evt.Collection))
		}
	})
	if err != nil {
		return err
	}
	defer sync.LeaveView()

	a.logger.Info("starting tui", zap.String("op", "tui"), zap.String("server", a.client.BaseURL()))
	program := tea.NewProgram(tui.New(tui.Deps{
		DB:      a.db,
		Client:  a.client,
		Handler: a.handler,
		Session: a.session,
		Sync:    sync,
		Events:  events,
		Logger:  a.logger,
	}), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}
