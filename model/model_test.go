package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPid(t *testing.T) {
	testCases := []struct {
		description string
		pid         Pid
		reserved    bool
		spawnable   bool
		name        string
	}{
		{description: "user", pid: 42, spawnable: true, name: "42"},
		{description: "max", pid: MaxPid, spawnable: true, name: "32767"},
		{description: "above max", pid: MaxPid + 1, name: "32768"},
		{description: "wildcard", pid: AnyPid, name: "0"},
		{description: "hardware", pid: PidHardware, reserved: true, name: "hardware"},
		{description: "idle", pid: PidIdle, reserved: true, name: "idle"},
		{description: "logger", pid: PidLogger, reserved: true, spawnable: true, name: "logger"},
		{description: "unassigned negative", pid: -100, name: "-100"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.reserved, tc.pid.IsReserved())
			assert.Equal(t, tc.spawnable, tc.pid.IsSpawnable())
			assert.Equal(t, tc.name, tc.pid.String())
			assert.Len(t, tc.pid.Key(), 4)
		})
	}
	assert.Equal(t, []byte{1, 0, 0, 0}, Pid(1).Key())
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, PidHardware.Key())
}

func TestHeader_Matches(t *testing.T) {
	header := Header{Dst: 5, Src: 9, Tag: 3}
	testCases := []struct {
		description string
		src         Pid
		tag         Tag
		expect      bool
	}{
		{description: "exact", src: 9, tag: 3, expect: true},
		{description: "any source", src: AnyPid, tag: 3, expect: true},
		{description: "any tag", src: 9, tag: AnyTag, expect: true},
		{description: "wildcards", src: AnyPid, tag: AnyTag, expect: true},
		{description: "other source", src: 8, tag: 3},
		{description: "other tag", src: 9, tag: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expect, header.Matches(tc.src, tc.tag))
		})
	}
}

func TestState(t *testing.T) {
	assert.Equal(t, byte('R'), StateRunning.Code())
	assert.Equal(t, byte('Q'), StateReady.Code())
	assert.Equal(t, byte('B'), StateBlocked.Code())
	assert.Equal(t, byte('Z'), StateZombie.Code())
	assert.Equal(t, "unknown", State(9).String())

	p := NewDescriptor(3, "sh", nil, PidKernel)
	assert.Equal(t, StateReady, p.State)
	assert.Equal(t, -1, p.Core)
	assert.Equal(t, QueueNone, p.Link.Queue)
}

func TestStatus_Truncated(t *testing.T) {
	assert.False(t, Status{Copied: 4, Length: 4}.Truncated())
	assert.True(t, Status{Copied: 4, Length: 10}.Truncated())
	assert.True(t, WaitNoHang.Has(WaitNoHang))
	assert.False(t, WaitOption(0).Has(WaitNoHang))
}

func TestSnapshot_JSON(t *testing.T) {
	snapshot := Snapshot{ID: "s1", Tick: 3, Entries: []Entry{{Status: 'R', Pid: 1, Name: "init", Parent: PidKernel}}}
	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parent":-3`)
	assert.Equal(t, "R      1 init", snapshot.Entries[0].String())
}
