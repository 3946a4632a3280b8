package usecase

import (
	"context"

	"github.com/google/uuid"
)

// processingScope is the cancellation token for one clip going through the
// pipeline. It is created fresh per processing attempt and never reused;
// invalidating it aborts every network call issued under it.
type processingScope struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newProcessingScope(parent context.Context) *processingScope {
	ctx, cancel := context.WithCancel(parent)
	return &processingScope{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *processingScope) cancelled() bool {
	return s.ctx.Err() != nil
}
