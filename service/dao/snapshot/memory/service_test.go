package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv := New()
	now := time.Now()
	testCases := []struct {
		name      string
		snapshot  *model.Snapshot
		expectErr error
	}{
		{name: "nil", snapshot: nil, expectErr: dao.ErrNilEntity},
		{name: "no id", snapshot: &model.Snapshot{}, expectErr: dao.ErrInvalidID},
		{name: "second", snapshot: &model.Snapshot{ID: "2", CreatedAt: now.Add(time.Second)}},
		{name: "first", snapshot: &model.Snapshot{ID: "1", CreatedAt: now}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := srv.Save(ctx, tc.snapshot)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			assert.NoError(t, err)
		})
	}
	list, err := srv.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)

	_, err = srv.Load(ctx, "3")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	require.NoError(t, srv.Delete(ctx, "1"))
	assert.Equal(t, 1, srv.Len())
}
