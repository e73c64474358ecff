package transport

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	updates []Update
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, update)
}

func (h *recordingHandler) ids() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ids []int64
	for _, u := range h.updates {
		ids = append(ids, u.UpdateID)
	}
	return ids
}

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]Update
	errs    []error
	offsets []int64
	done    chan struct{}
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return nil, err
	}
	if len(s.batches) > 0 {
		batch := s.batches[0]
		s.batches = s.batches[1:]
		s.mu.Unlock()
		return batch, nil
	}

	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPollerAdvancesOffset(t *testing.T) {
	source := &scriptedSource{
		batches: [][]Update{
			{{UpdateID: 10}, {UpdateID: 11}},
			{{UpdateID: 12}},
		},
		done: make(chan struct{}),
	}
	handler := &recordingHandler{}
	poller := NewPoller(source, handler, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- poller.Run(ctx) }()

	select {
	case <-source.done:
	case <-time.After(time.Second):
		t.Fatal("poller never drained the scripted batches")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	assert.Equal(t, []int64{10, 11, 12}, handler.ids())

	// Each fetch asks for the next unseen update.
	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Equal(t, []int64{0, 12, 13}, source.offsets)
}

func TestPollerRetriesAfterFetchError(t *testing.T) {
	source := &scriptedSource{
		errs:    []error{fmt.Errorf("gateway unreachable")},
		batches: [][]Update{{{UpdateID: 1}}},
		done:    make(chan struct{}),
	}
	handler := &recordingHandler{}

	poller := NewPoller(source, handler, nil)
	poller.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- poller.Run(ctx) }()

	select {
	case <-source.done:
	case <-time.After(time.Second):
		t.Fatal("poller did not recover from the fetch error")
	}
	cancel()
	<-errCh

	assert.Equal(t, []int64{1}, handler.ids())
}
