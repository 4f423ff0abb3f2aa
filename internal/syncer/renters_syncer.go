package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/lachiem1/rentdesk/internal/forms"
	"github.com/lachiem1/rentdesk/internal/page"
	"github.com/lachiem1/rentdesk/internal/rentapi"
	"github.com/lachiem1/rentdesk/internal/storage"
)

const (
	CollectionRenters    = "renters"
	defaultRenterWorkers = 4
)

// PageFetcher loads one server page.
type PageFetcher interface {
	FetchPage(ctx context.Context, ref string) (*rentapi.Page, error)
}

// RentersSyncer mirrors the floors page renter list and each renter's
// payment matrix and totals into the local cache.
type RentersSyncer struct {
	client    PageFetcher
	renters   *storage.RentersRepo
	ledgers   *storage.LedgersRepo
	syncState *storage.SyncStateRepo
	workers   int
}

func NewRentersSyncer(
	client PageFetcher,
	renters *storage.RentersRepo,
	ledgers *storage.LedgersRepo,
	syncState *storage.SyncStateRepo,
	workers int,
) *RentersSyncer {
	if workers <= 0 {
		workers = defaultRenterWorkers
	}
	return &RentersSyncer{
		client:    client,
		renters:   renters,
		ledgers:   ledgers,
		syncState: syncState,
		workers:   workers,
	}
}

func (s *RentersSyncer) Collection() string {
	return CollectionRenters
}

func (s *RentersSyncer) HasCachedData(ctx context.Context) (bool, error) {
	return s.renters.HasActiveRenters(ctx)
}

func (s *RentersSyncer) LastSuccessAt(ctx context.Context) (time.Time, bool, error) {
	state, ok, err := s.syncState.Get(ctx, s.Collection())
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok || state.LastSuccess == nil {
		return time.Time{}, false, nil
	}
	return state.LastSuccess.UTC(), true, nil
}

type renterLedger struct {
	id     string
	ledger *forms.Ledger
}

func (s *RentersSyncer) Sync(ctx context.Context) error {
	return runSyncAttempt(ctx, s.syncState, s.Collection(), func(runCtx context.Context) (storage.SyncCounts, error) {
		var counts storage.SyncCounts
		floors, err := s.fetchDocument(runCtx, rentapi.FloorsPath)
		if err != nil {
			return counts, err
		}

		refs := floors.Renters()
		ids := make([]string, 0, len(refs))
		renters := make([]storage.Renter, 0, len(refs))
		for _, ref := range refs {
			ids = append(ids, ref.ID)
			renters = append(renters, storage.Renter{ID: ref.ID, Name: ref.Name})
		}

		ledgers, err := fetchAllByID(runCtx, ids, s.workers, s.fetchLedger)
		if err != nil {
			return counts, err
		}

		fetchedAt := now().UTC()
		for _, l := range ledgers {
			if l.ledger == nil {
				continue
			}
			if err := s.ledgers.Save(runCtx, l.id, l.ledger.Matrix, l.ledger.Totals, fetchedAt); err != nil {
				return counts, err
			}
			counts.Ledgers++
		}
		if err := s.renters.ReplaceSnapshot(runCtx, renters, fetchedAt); err != nil {
			return counts, err
		}
		counts.Renters = len(renters)
		return counts, nil
	})
}

// fetchLedger reads one renter page. A page without a payment matrix
// yields no ledger rather than failing the whole sync.
func (s *RentersSyncer) fetchLedger(ctx context.Context, id string) (renterLedger, error) {
	doc, err := s.fetchDocument(ctx, rentapi.RenterPath(id))
	if err != nil {
		return renterLedger{}, err
	}
	if doc.Matrix == nil {
		return renterLedger{id: id}, nil
	}
	ledger, err := forms.LedgerFromDocument(doc)
	if err != nil {
		return renterLedger{}, fmt.Errorf("renter %s: %w", id, err)
	}
	return renterLedger{id: id, ledger: ledger}, nil
}

func (s *RentersSyncer) fetchDocument(ctx context.Context, ref string) (*page.Document, error) {
	p, err := s.client.FetchPage(ctx, ref)
	if err != nil {
		return nil, err
	}
	return page.ParseBytes(p.URL, p.HTML)
}
