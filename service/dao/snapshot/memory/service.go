// Package memory keeps snapshots in process memory.
package memory

import (
	"context"

	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao"
	"github.com/viant/xkernel/service/dao/snapshot"
	"github.com/viant/xkernel/service/dao/store"
)

// Service is an in-memory snapshot store.
type Service struct {
	*store.MemoryStore[string, model.Snapshot]
}

var _ snapshot.Service = (*Service)(nil)

// Save rejects snapshots without an id.
func (s *Service) Save(ctx context.Context, v *model.Snapshot) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	if v.ID == "" {
		return dao.ErrInvalidID
	}
	return s.MemoryStore.Save(ctx, v)
}

// List returns snapshots oldest first.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Snapshot, error) {
	list, err := s.MemoryStore.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	snapshot.SortByTime(list)
	return list, nil
}

// New creates an empty store.
func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[string, model.Snapshot](func(s *model.Snapshot) string { return s.ID })}
}
