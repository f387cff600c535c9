// Package snapshot stores ps snapshots of the kernel process table.
package snapshot

import (
	"sort"

	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao"
)

// Service stores snapshots keyed by id.
type Service = dao.Service[string, model.Snapshot]

// SortByTime orders snapshots oldest first.
func SortByTime(snapshots []*model.Snapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		if snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return snapshots[i].Tick < snapshots[j].Tick
		}
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})
}
