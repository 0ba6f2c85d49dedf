package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamState_String(t *testing.T) {
	tests := []struct {
		state    StreamState
		expected string
	}{
		{StreamActive, "active"},
		{StreamPaused, "paused"},
		{StreamClosed, "closed"},
		{StreamState(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func TestStreamIsFIFO(t *testing.T) {
	h := NewHandler[int]()
	s := h.Subscribe()
	defer s.Close()

	for i := range 100 {
		require.NoError(t, h.Run(i, nil))
	}

	ctx := context.Background()
	for i := range 100 {
		v, err := s.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestStreamNextBlocksUntilBroadcast(t *testing.T) {
	h := NewHandler[string]()
	s := h.Subscribe()

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = h.Run("focused", nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "focused", v)
}

func TestStreamFilter(t *testing.T) {
	h := NewHandler[int]()
	s := h.Subscribe(WithFilter(func(v int) bool { return v%2 == 0 }))

	for i := range 6 {
		require.NoError(t, h.Run(i, nil))
	}

	var got []int
	for v, ok := s.TryNext(); ok; v, ok = s.TryNext() {
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 2, 4}, got)
}

func TestStreamBacklogDropsOldest(t *testing.T) {
	h := NewHandler[int]()
	s := h.Subscribe(WithBacklog[int](2))

	for i := range 5 {
		require.NoError(t, h.Run(i, nil))
	}

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, uint64(3), s.Dropped())
	v, _ := s.TryNext()
	assert.Equal(t, 3, v)
}

func TestStreamPauseResume(t *testing.T) {
	h := NewHandler[int]()
	s := h.Subscribe(WithPaused[int]())
	assert.Equal(t, StreamPaused, s.State())

	require.NoError(t, h.Run(1, nil))
	s.Resume()
	require.NoError(t, h.Run(2, nil))
	s.Pause()
	require.NoError(t, h.Run(3, nil))

	v, ok := s.TryNext()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = s.TryNext()
	assert.False(t, ok)
}

func TestStreamCloseDrainsThenEnds(t *testing.T) {
	h := NewHandler[int]()
	s := h.Subscribe()

	require.NoError(t, h.Run(1, nil))
	s.Close()
	s.Close()
	require.NoError(t, h.Run(2, nil))
	assert.Equal(t, 0, h.Len())

	ctx := context.Background()
	var got []int
	for v := range s.All(ctx) {
		got = append(got, v)
	}
	assert.Equal(t, []int{1}, got)

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestStreamCloseWakesBlockedNext(t *testing.T) {
	h := NewHandler[int]()
	s := h.Subscribe()

	errc := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		errc <- err
	}()

	time.Sleep(5 * time.Millisecond)
	s.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStreamClosed)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}
}
