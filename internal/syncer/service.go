package syncer

import "context"

// Service is the view-facing API of the engine.
type Service struct {
	engine *Engine
}

func NewService(engine *Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) EnterRentersView(ctx context.Context) error {
	return s.engine.EnterView(ctx, CollectionRenters)
}

func (s *Service) LeaveView() {
	s.engine.LeaveView()
}

func (s *Service) RefreshRenters() error {
	return s.engine.ManualRefresh(CollectionRenters)
}

// SyncRenters refreshes the renter cache once and returns when done.
func (s *Service) SyncRenters(ctx context.Context) error {
	return s.engine.SyncNow(ctx, CollectionRenters)
}
