package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDispatcher struct {
	mu    sync.Mutex
	calls map[int]int
	fail  error
}

func (d *countingDispatcher) Dispatch(_ context.Context, core int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[core]++
	return d.fail
}

func (d *countingDispatcher) count(core int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[core]
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name      string
		options   []Option
		nilTarget bool
		expectErr bool
	}{
		{name: "defaults"},
		{name: "custom", options: []Option{WithCores(4), WithTick(time.Millisecond)}},
		{name: "no dispatcher", nilTarget: true, expectErr: true},
		{name: "zero cores", options: []Option{WithCores(0)}, expectErr: true},
		{name: "zero tick", options: []Option{WithConfig(Config{Cores: 1})}, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var dispatcher Dispatcher = &countingDispatcher{calls: map[int]int{}}
			if tc.nilTarget {
				dispatcher = nil
			}
			_, err := New(dispatcher, tc.options...)
			assert.Equal(t, tc.expectErr, err != nil)
		})
	}
}

func TestService_RunOnce(t *testing.T) {
	var order []int
	srv, err := New(DispatcherFunc(func(_ context.Context, core int) error {
		order = append(order, core)
		return nil
	}), WithCores(3))
	require.NoError(t, err)
	require.NoError(t, srv.RunOnce(context.Background()))
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestService_StartShutdown(t *testing.T) {
	dispatcher := &countingDispatcher{calls: map[int]int{}}
	srv, err := New(dispatcher, WithCores(2), WithTick(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrRunning)

	assert.Eventually(t, func() bool {
		return dispatcher.count(0) > 2 && dispatcher.count(1) > 2
	}, time.Second, time.Millisecond)
	assert.NoError(t, srv.Shutdown())
	assert.NoError(t, srv.Shutdown())
}

func TestService_FatalDispatch(t *testing.T) {
	fatal := errors.New("halted")
	dispatcher := &countingDispatcher{calls: map[int]int{}, fail: fatal}
	srv, err := New(dispatcher, WithTick(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	assert.Eventually(t, func() bool { return dispatcher.count(0) > 0 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, srv.Shutdown(), fatal)
	assert.ErrorIs(t, srv.RunOnce(context.Background()), fatal)
}
