package syncer

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/storage"
	"go.uber.org/zap"
)

// NewRentersService wires the renters syncer to the local cache.
// pollInterval <= 0 uses the engine default.
func NewRentersService(
	db *sql.DB,
	client PageFetcher,
	pollInterval time.Duration,
	logger *zap.Logger,
	onEvent func(Event),
) (*Service, error) {
	rentersSyncer := NewRentersSyncer(
		client,
		storage.NewRentersRepo(db),
		storage.NewLedgersRepo(db),
		storage.NewSyncStateRepo(db),
		defaultRenterWorkers,
	)

	engine, err := New(
		Config{
			StaleTTL:     30 * time.Second,
			PollInterval: pollInterval,
			Backoff:      []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second, 60 * time.Second},
			Halt: func(err error) bool {
				return errors.Is(err, rentapi.ErrUnauthorized)
			},
			Logger: logger,
		},
		[]Syncer{rentersSyncer},
		onEvent,
	)
	if err != nil {
		return nil, err
	}
	return NewService(engine), nil
}
