package syncer

import (
	"context"
	"time"

	"github.com/lachiem1/rentdesk/internal/storage"
)

// runSyncAttempt wraps collection sync work with sync_state bookkeeping.
// work reports what it stored; the attempt succeeds only if it returns nil.
func runSyncAttempt(
	ctx context.Context,
	syncState *storage.SyncStateRepo,
	collection string,
	work func(context.Context) (storage.SyncCounts, error),
) error {
	if err := syncState.Begin(ctx, collection, now().UTC()); err != nil {
		return err
	}

	counts, err := work(ctx)
	if err != nil {
		// ctx may already be cancelled; the error still has to be recorded.
		_ = syncState.Fail(context.WithoutCancel(ctx), collection, now().UTC(), err)
		return err
	}
	return syncState.Succeed(ctx, collection, now().UTC(), counts)
}

var now = time.Now
