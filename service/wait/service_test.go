package wait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/scheduler"
)

type fixture struct {
	sched  *scheduler.Service
	srv    *Service
	procs  map[model.Pid]*model.Descriptor
	reaped []model.Pid
}

// newFixture spawns 1 under the kernel and every other pid as a child of 1.
func newFixture(t *testing.T, pids ...model.Pid) *fixture {
	sched, err := scheduler.New()
	require.NoError(t, err)
	f := &fixture{sched: sched, procs: map[model.Pid]*model.Descriptor{}}
	f.srv = New(sched, WithBuckets(4), WithReaper(func(p *model.Descriptor) { f.reaped = append(f.reaped, p.Pid) }))
	for _, pid := range pids {
		parent := model.Pid(1)
		if pid == 1 {
			parent = model.PidKernel
		}
		p := model.NewDescriptor(pid, "p"+pid.String(), nil, parent)
		f.srv.New(p, parent)
		sched.Add(p)
		f.procs[pid] = p
	}
	return f
}

func TestService_WaitAfterExit(t *testing.T) {
	f := newFixture(t, 1, 2)
	f.srv.Exit(f.procs[2], 42)
	assert.True(t, f.sched.IsZombie(f.procs[2]))
	assert.Empty(t, f.reaped, "status retained until collected")

	var delivered []model.ExitInfo
	info, err := f.srv.Wait(f.procs[1], 2, 0, func(info model.ExitInfo, arg interface{}) {
		delivered = append(delivered, info)
		assert.Equal(t, "arg", arg)
	}, "arg")
	require.NoError(t, err)
	assert.Equal(t, model.ExitInfo{Pid: 2, Status: 42}, info)
	assert.Equal(t, []model.ExitInfo{info}, delivered)
	assert.Equal(t, []model.Pid{2}, f.reaped)

	_, err = f.srv.Wait(f.procs[1], 2, 0, nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidTarget, "second wait for a reaped child")
}

func TestService_WaitBeforeExit(t *testing.T) {
	f := newFixture(t, 1, 2, 3)
	calls := 0
	callback := func(model.ExitInfo, interface{}) { calls++ }

	_, err := f.srv.Wait(f.procs[1], 3, 0, callback, nil)
	assert.ErrorIs(t, err, model.ErrBlocked)
	assert.Equal(t, []model.Pid{1}, f.sched.Blocked(model.ReasonWait))

	f.srv.Exit(f.procs[2], 1)
	state, _ := f.sched.StateOf(f.procs[1])
	assert.Equal(t, model.StateBlocked, state, "exit of another child does not wake the waiter")

	f.srv.Exit(f.procs[3], 9)
	state, _ = f.sched.StateOf(f.procs[1])
	assert.Equal(t, model.StateReady, state)
	assert.Equal(t, 1, calls)

	info, err := f.srv.Wait(f.procs[1], 3, 0, callback, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ExitInfo{Pid: 3, Status: 9}, info)
	assert.Equal(t, 1, calls, "status delivered exactly once")

	info, err = f.srv.Wait(f.procs[1], model.AnyPid, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ExitInfo{Pid: 2, Status: 1}, info)
	assert.ElementsMatch(t, []model.Pid{2, 3}, f.reaped)
}

func TestService_WaitErrors(t *testing.T) {
	f := newFixture(t, 1, 2, 3)
	testCases := []struct {
		name    string
		waiter  model.Pid
		target  model.Pid
		options model.WaitOption
		expect  error
	}{
		{name: "not a child", waiter: 2, target: 3, expect: model.ErrInvalidTarget},
		{name: "unknown target", waiter: 1, target: 77, expect: model.ErrInvalidTarget},
		{name: "no children", waiter: 3, target: model.AnyPid, expect: model.ErrInvalidTarget},
		{name: "no hang", waiter: 1, target: model.AnyPid, options: model.WaitNoHang, expect: model.ErrWouldBlock},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.srv.Wait(f.procs[tc.waiter], tc.target, tc.options, nil, nil)
			assert.ErrorIs(t, err, tc.expect)
		})
	}
	assert.Empty(t, f.sched.Blocked(model.ReasonWait), "failed waits never block")
}

func TestService_Orphans(t *testing.T) {
	f := newFixture(t, 1, 2, 3)
	f.srv.Exit(f.procs[3], 0)
	f.srv.Exit(f.procs[1], 5)

	assert.Contains(t, f.reaped, model.Pid(3), "zombie children reaped with their parent")
	assert.Contains(t, f.reaped, model.Pid(1), "kernel children reaped on exit")
	assert.Equal(t, model.PidKernel, f.srv.Parent(f.procs[2]))
	assert.Equal(t, []model.Pid{2}, f.srv.Children(model.PidKernel))

	f.srv.Exit(f.procs[2], 0)
	assert.Contains(t, f.reaped, model.Pid(2))
	assert.Empty(t, f.srv.Children(model.PidKernel))
}

func TestService_Purge(t *testing.T) {
	f := newFixture(t, 1, 2)
	_, err := f.srv.Wait(f.procs[1], model.AnyPid, 0, nil, nil)
	require.ErrorIs(t, err, model.ErrBlocked)

	f.sched.Purge(f.procs[2])
	f.srv.Purge(f.procs[2])
	state, _ := f.sched.StateOf(f.procs[1])
	assert.Equal(t, model.StateReady, state)
	_, err = f.srv.Wait(f.procs[1], model.AnyPid, 0, nil, nil)
	assert.ErrorIs(t, err, model.ErrPeerDead)
	assert.Empty(t, f.srv.Children(1))
}

func TestService_AssumeReap(t *testing.T) {
	f := newFixture(t, 1, 2, 3)
	replacement := model.NewDescriptor(20, "exec", nil, 0)
	f.srv.Assume(f.procs[2], replacement)
	assert.Equal(t, model.Pid(1), f.srv.Parent(replacement))
	assert.ElementsMatch(t, []model.Pid{20, 3}, f.srv.Children(1))

	f.sched.Add(replacement)
	f.srv.Exit(replacement, 3)
	info, err := f.srv.Wait(f.procs[1], 20, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Status)

	assert.Error(t, f.srv.ReapProc(f.procs[3]), "live process cannot be reaped")
	f.srv.Exit(f.procs[3], 0)
	require.NoError(t, f.srv.ReapProc(f.procs[3]))
	assert.ErrorIs(t, f.srv.ReapProc(f.procs[3]), model.ErrInvalidTarget)
}

func TestService_AssumeSpawned(t *testing.T) {
	f := newFixture(t, 1, 2, 3)
	replacement := model.NewDescriptor(20, "exec", nil, model.PidKernel)
	f.srv.New(replacement, model.PidKernel)
	f.sched.Add(replacement)
	require.Contains(t, f.srv.Children(model.PidKernel), model.Pid(20))

	f.srv.Assume(f.procs[2], replacement)
	assert.Equal(t, model.Pid(1), f.srv.Parent(replacement))
	assert.ElementsMatch(t, []model.Pid{1}, f.srv.Children(model.PidKernel), "replacement left its spawning parent")
	assert.ElementsMatch(t, []model.Pid{20, 3}, f.srv.Children(1))

	f.srv.Exit(replacement, 5)
	info, err := f.srv.Wait(f.procs[1], 20, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ExitInfo{Pid: 20, Status: 5}, info)
	assert.Equal(t, []model.Pid{20}, f.reaped)
	assert.NotContains(t, f.srv.Children(model.PidKernel), model.Pid(20))
	assert.NotContains(t, f.srv.Children(1), model.Pid(20))
}
