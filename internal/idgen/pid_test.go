package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPids_Alloc(t *testing.T) {
	testCases := []struct {
		name     string
		max      int32
		release  []int32
		allocs   int
		expected []int32
	}{
		{name: "sequential", max: 5, allocs: 3, expected: []int32{1, 2, 3}},
		{name: "wrap skips in use", max: 3, allocs: 3, release: []int32{2}, expected: []int32{1, 2, 3, 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pids := NewPids(tc.max)
			var actual []int32
			for i := 0; i < tc.allocs; i++ {
				pid, err := pids.Alloc()
				assert.NoError(t, err)
				actual = append(actual, pid)
			}
			for _, pid := range tc.release {
				pids.Release(pid)
				next, err := pids.Alloc()
				assert.NoError(t, err)
				actual = append(actual, next)
			}
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestPids_Exhausted(t *testing.T) {
	pids := NewPids(2)
	_, _ = pids.Alloc()
	_, _ = pids.Alloc()
	_, err := pids.Alloc()
	assert.ErrorIs(t, err, ErrPidExhausted)
	assert.True(t, pids.InUse(1))
	pids.Release(1)
	assert.False(t, pids.InUse(1))
}
