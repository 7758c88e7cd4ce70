// Package store persists clip job records.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("job not found")
	ErrDuplicateKey    = errors.New("duplicate job id")
	ErrAlreadyFinished = errors.New("job already finished")
)

// Status is the persisted lifecycle state of a job.
type Status string

const (
	// StatusIdle exists only on clients before submission and is never stored.
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError
}

// Job is one clip request as seen by pollers.
type Job struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Status      Status    `json:"status"`
	PublicURL   string    `json:"publicUrl,omitempty"`
	StoragePath string    `json:"storagePath,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Result is the terminal payload written once per job.
type Result struct {
	Status      Status
	PublicURL   string
	StoragePath string
	Error       string
}

// Ready builds the success payload.
func Ready(publicURL, storagePath string) Result {
	return Result{Status: StatusReady, PublicURL: publicURL, StoragePath: storagePath}
}

// Failed builds the error payload.
func Failed(msg string) Result {
	return Result{Status: StatusError, Error: msg}
}

func (r Result) validate() error {
	if !r.Status.Terminal() {
		return fmt.Errorf("result status must be terminal, got %q", r.Status)
	}
	return nil
}

// apply copies the terminal payload onto j.
func (r Result) apply(j *Job, now time.Time) {
	j.Status = r.Status
	j.PublicURL = r.PublicURL
	j.StoragePath = r.StoragePath
	j.Error = r.Error
	j.UpdatedAt = now
}

// Store is the job record interface. Implementations must be safe for concurrent use.
type Store interface {
	Ping(ctx context.Context) error
	// Create inserts a new record. The job must be in StatusProcessing.
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	// Finish moves a processing job to its terminal state. It returns ErrNotFound
	// if the record is gone and ErrAlreadyFinished if it was already terminal.
	Finish(ctx context.Context, id string, result Result) error
	Delete(ctx context.Context, id string) error
	Close() error
}

func prepareCreate(job *Job) error {
	if job.ID == "" {
		return errors.New("job id is required")
	}
	if job.Status != StatusProcessing {
		return fmt.Errorf("new job must be %q, got %q", StatusProcessing, job.Status)
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	return nil
}
