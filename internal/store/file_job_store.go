package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dunamismax/subflow/internal/domain"
	"github.com/gofrs/flock"
)

// FileJobStore keeps the job table in memory and rewrites a whole-table JSON
// snapshot on every mutation. The snapshot is written to a temp file and
// renamed over the original so a crash mid-write never leaves a corrupt
// table, and an advisory flock serializes the rewrite against any other
// process touching the same snapshot.
//
// A failed snapshot write is logged and the in-memory table stays
// authoritative; only a restart before the next successful write loses state.
type FileJobStore struct {
	mu       sync.RWMutex
	jobs     map[string]domain.Job
	path     string
	fileLock *flock.Flock
	logger   *log.Logger
}

func NewFileJobStore(path string, logger *log.Logger) (*FileJobStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	s := &FileJobStore{
		jobs:     make(map[string]domain.Job),
		path:     path,
		fileLock: flock.New(path + ".lock"),
		logger:   logger,
	}
	s.loadSnapshot()
	return s, nil
}

// loadSnapshot restores the job table from disk. A missing or unreadable
// snapshot starts an empty table rather than failing startup.
func (s *FileJobStore) loadSnapshot() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Printf("read jobs snapshot %s failed, starting empty: %v", s.path, err)
		}
		return
	}

	var jobs map[string]domain.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		s.logger.Printf("parse jobs snapshot %s failed, starting empty: %v", s.path, err)
		return
	}
	if jobs != nil {
		s.jobs = jobs
	}
	s.logger.Printf("restored %d job(s) from %s", len(s.jobs), s.path)
}

func (s *FileJobStore) Create(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicateJob
	}
	s.jobs[job.ID] = job
	s.persistLocked()
	return nil
}

func (s *FileJobStore) Get(_ context.Context, id string) (domain.Job, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok, nil
}

func (s *FileJobStore) Update(_ context.Context, id string, mutate func(*domain.Job)) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}

	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	s.persistLocked()
	return job, nil
}

func (s *FileJobStore) List(_ context.Context) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// persistLocked rewrites the snapshot. Callers must hold mu.
func (s *FileJobStore) persistLocked() {
	if err := s.writeSnapshot(); err != nil {
		s.logger.Printf("persist jobs snapshot %s failed, in-memory table remains authoritative: %v", s.path, err)
	}
}

func (s *FileJobStore) writeSnapshot() error {
	data, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job table: %w", err)
	}

	if err := s.fileLock.Lock(); err != nil {
		return fmt.Errorf("lock snapshot: %w", err)
	}
	defer func() {
		if err := s.fileLock.Unlock(); err != nil {
			s.logger.Printf("unlock snapshot %s failed: %v", s.path, err)
		}
	}()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp snapshot: %w", err)
	}
	return nil
}
