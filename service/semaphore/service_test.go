package semaphore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao/process/memory"
	"github.com/viant/xkernel/service/scheduler"
)

type fixture struct {
	sched *scheduler.Service
	table *memory.Service
	srv   *Service
	procs map[model.Pid]*model.Descriptor
}

func newFixture(t *testing.T, pids ...model.Pid) *fixture {
	sched, err := scheduler.New()
	require.NoError(t, err)
	table := memory.New()
	f := &fixture{sched: sched, table: table, srv: New(sched, table), procs: map[model.Pid]*model.Descriptor{}}
	for _, pid := range pids {
		p := model.NewDescriptor(pid, "p"+pid.String(), nil, model.PidKernel)
		require.NoError(t, table.Insert(context.Background(), p))
		sched.Add(p)
		f.procs[pid] = p
	}
	return f
}

func TestService_FIFO(t *testing.T) {
	f := newFixture(t, 1, 2, 3, 4)
	id := f.srv.Create(1)

	assert.NoError(t, f.srv.Wait(id, f.procs[1]))
	owner, _ := f.srv.Owner(id)
	assert.Equal(t, model.Pid(1), owner)

	for _, pid := range []model.Pid{3, 2, 4} {
		assert.ErrorIs(t, f.srv.Wait(id, f.procs[pid]), model.ErrBlocked)
	}
	assert.Equal(t, []model.Pid{3, 2, 4}, f.srv.Waiters(id))
	assert.Equal(t, []model.Pid{3, 2, 4}, f.sched.Blocked(model.ReasonSemaphore))
	count, _ := f.srv.Count(id)
	assert.Equal(t, -3, count)

	var released []model.Pid
	for i := 0; i < 3; i++ {
		require.NoError(t, f.srv.Signal(id))
		ready := f.sched.Ready()
		released = append(released, ready[len(ready)-1])
	}
	assert.Equal(t, []model.Pid{3, 2, 4}, released, "waiters released in arrival order")

	for _, pid := range released {
		assert.NoError(t, f.srv.Wait(id, f.procs[pid]), "re-entry completes the wait")
	}
	count, _ = f.srv.Count(id)
	assert.Equal(t, 0, count)
}

func TestService_CounterInvariant(t *testing.T) {
	testCases := []struct {
		name    string
		initial int
		waits   int
		signals int
	}{
		{name: "no contention", initial: 3, waits: 2, signals: 1},
		{name: "contention", initial: 1, waits: 3, signals: 0},
		{name: "signals first", initial: 0, waits: 1, signals: 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 1, 2, 3)
			id := f.srv.Create(tc.initial)
			for i := 0; i < tc.signals; i++ {
				require.NoError(t, f.srv.Signal(id))
			}
			for i := 0; i < tc.waits; i++ {
				_ = f.srv.Wait(id, f.procs[model.Pid(i+1)])
			}
			count, err := f.srv.Count(id)
			require.NoError(t, err)
			assert.Equal(t, tc.initial+tc.signals-tc.waits, count)
		})
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t, 1, 2)
	id := f.srv.Create(0)
	assert.ErrorIs(t, f.srv.Wait(id, f.procs[1]), model.ErrBlocked)
	assert.ErrorIs(t, f.srv.Wait(id, f.procs[2]), model.ErrBlocked)

	require.NoError(t, f.srv.Delete(id))
	assert.Empty(t, f.sched.Blocked(model.ReasonSemaphore))
	assert.ErrorIs(t, f.srv.Wait(id, f.procs[1]), ErrDeleted)
	assert.ErrorIs(t, f.srv.Wait(id, f.procs[2]), ErrDeleted)
	assert.ErrorIs(t, f.srv.Wait(id, f.procs[2]), ErrNotFound)
	assert.ErrorIs(t, f.srv.Signal(id), ErrNotFound)
	assert.ErrorIs(t, f.srv.Delete(id), ErrNotFound)
}

func TestService_Purge(t *testing.T) {
	f := newFixture(t, 1, 2, 3)
	sem := f.srv.Create(0)
	assert.ErrorIs(t, f.srv.Wait(sem, f.procs[2]), model.ErrBlocked)
	f.sched.Purge(f.procs[2])
	f.srv.Purge(2)
	count, _ := f.srv.Count(sem)
	assert.Equal(t, 0, count, "departed waiter restores the counter")
	assert.Empty(t, f.srv.Waiters(sem))

	mutex := f.srv.Mutex()
	require.NoError(t, f.srv.Wait(mutex, f.procs[1]))
	assert.ErrorIs(t, f.srv.Wait(mutex, f.procs[3]), model.ErrBlocked)
	f.srv.Purge(1)
	owner, _ := f.srv.Owner(mutex)
	assert.Equal(t, model.Pid(3), owner, "mutex passes to the next waiter")
	assert.NoError(t, f.srv.Wait(mutex, f.procs[3]))
	require.NoError(t, f.srv.Signal(mutex))
	owner, _ = f.srv.Owner(mutex)
	assert.Equal(t, NoOwner, owner)
}

func TestService_PurgeUncollectedGrant(t *testing.T) {
	testCases := []struct {
		description string
		next        bool
		expectCount int
		expectOwner model.Pid
	}{
		{description: "permit passes to next waiter", next: true, expectCount: 0, expectOwner: 2},
		{description: "permit returned to counter", next: false, expectCount: 1, expectOwner: NoOwner},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			f := newFixture(t, 1, 2, 3)
			sem := f.srv.Create(0)
			assert.ErrorIs(t, f.srv.Wait(sem, f.procs[1]), model.ErrBlocked)
			require.NoError(t, f.srv.Signal(sem))
			if tc.next {
				assert.ErrorIs(t, f.srv.Wait(sem, f.procs[2]), model.ErrBlocked)
			}

			f.sched.Purge(f.procs[1])
			f.srv.Purge(1)
			count, _ := f.srv.Count(sem)
			assert.Equal(t, tc.expectCount, count)
			owner, _ := f.srv.Owner(sem)
			assert.Equal(t, tc.expectOwner, owner)

			if tc.next {
				assert.NoError(t, f.srv.Wait(sem, f.procs[2]), "granted permit collected")
				return
			}
			assert.NoError(t, f.srv.Wait(sem, f.procs[3]), "returned permit acquired at once")
			count, _ = f.srv.Count(sem)
			assert.Equal(t, 0, count)
		})
	}
}
