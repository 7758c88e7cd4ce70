package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps jobs in process memory. Records do not survive a restart.
type MemoryStore struct {
	jobs sync.Map // id -> Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Create(ctx context.Context, job *Job) error {
	if err := prepareCreate(job); err != nil {
		return err
	}
	if _, loaded := s.jobs.LoadOrStore(job.ID, *job); loaded {
		return ErrDuplicateKey
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	val, ok := s.jobs.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	j := val.(Job)
	return &j, nil
}

func (s *MemoryStore) Finish(ctx context.Context, id string, result Result) error {
	if err := result.validate(); err != nil {
		return err
	}
	for {
		val, ok := s.jobs.Load(id)
		if !ok {
			return ErrNotFound
		}
		current := val.(Job)
		if current.Status.Terminal() {
			return ErrAlreadyFinished
		}

		next := current
		result.apply(&next, time.Now().UTC())
		if s.jobs.CompareAndSwap(id, current, next) {
			return nil
		}
	}
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.jobs.LoadAndDelete(id); !ok {
		return ErrNotFound
	}
	return nil
}
