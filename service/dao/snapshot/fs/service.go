// Package fs stores snapshots as JSON files through afs, so any afs-backed
// location (local disk, mem://, cloud storage) can hold them.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao"
	"github.com/viant/xkernel/service/dao/snapshot"
)

// Service is a filesystem-backed snapshot store.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
	logger   zerolog.Logger
}

var _ snapshot.Service = (*Service)(nil)

// Option configures the store.
type Option func(s *Service)

// WithLogger sets the logger used for unreadable files.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Save writes the snapshot to <base>/<id>.json.
func (s *Service) Save(ctx context.Context, v *model.Snapshot) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	if v.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	filePath := s.snapshotPath(v.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save snapshot to %s: %w", filePath, err)
	}
	return nil
}

// Load reads a snapshot by id.
func (s *Service) Load(ctx context.Context, id string) (*model.Snapshot, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	filePath := s.snapshotPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot %s: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: snapshot %s", dao.ErrNotFound, id)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	var ret model.Snapshot
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", id, err)
	}
	return &ret, nil
}

// Delete removes a snapshot by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.snapshotPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check snapshot %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: snapshot %s", dao.ErrNotFound, id)
	}
	if err = s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}

// List returns every readable snapshot, oldest first.
func (s *Service) List(ctx context.Context, _ ...*dao.Parameter) ([]*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	var ret []*model.Snapshot
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("skip unreadable snapshot")
			continue
		}
		var item model.Snapshot
		if err := json.Unmarshal(data, &item); err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("skip malformed snapshot")
			continue
		}
		ret = append(ret, &item)
	}
	snapshot.SortByTime(ret)
	return ret, nil
}

func (s *Service) snapshotPath(id string) string {
	return url.Join(s.basePath, fmt.Sprintf("%s.json", path.Base(id)))
}

// New creates a store rooted at basePath, creating the location if needed.
func New(basePath string, options ...Option) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()
	ctx := context.Background()
	basePath = url.Normalize(basePath, file.Scheme)
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	ret := &Service{basePath: basePath, fs: fs, logger: zerolog.Nop()}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}
