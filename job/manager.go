package job

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"clipwebapi/config"
	"clipwebapi/ffmpeg"
	"clipwebapi/storage"
	"clipwebapi/store"
	"clipwebapi/ytdlp"

	"github.com/lithammer/shortuuid/v4"
)

type Downloader interface {
	Download(ctx context.Context, req ytdlp.DownloadRequest) error
}

type Prober interface {
	Probe(ctx context.Context, path string) (ffmpeg.Dimensions, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, req ffmpeg.TranscodeRequest) error
}

// Deps are the collaborators a Manager drives.
type Deps struct {
	Downloader Downloader
	Prober     Prober
	Transcoder Transcoder
	Store      store.Store
	Objects    storage.ObjectStore
}

type Manager struct {
	cfg     *config.Config
	deps    Deps
	workDir string
	wg      sync.WaitGroup
}

func NewManager(cfg *config.Config, deps Deps) (*Manager, error) {
	if deps.Downloader == nil || deps.Prober == nil || deps.Transcoder == nil || deps.Store == nil || deps.Objects == nil {
		return nil, fmt.Errorf("job manager requires downloader, prober, transcoder, store and object store")
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "clipwebapi-")
		if err != nil {
			return nil, fmt.Errorf("failed to create work dir: %w", err)
		}
		workDir = dir
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work dir %s: %w", workDir, err)
	}

	return &Manager{cfg: cfg, deps: deps, workDir: workDir}, nil
}

// WorkDir is where intermediate files live while a job runs.
func (m *Manager) WorkDir() string {
	return m.workDir
}

// Submit records a new processing job and starts its pipeline in the background.
func (m *Manager) Submit(ctx context.Context, req Request) (*store.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	j := &store.Job{
		ID:     fmt.Sprintf("%s_%d", shortuuid.New(), time.Now().Unix()),
		UserID: req.UserID,
		Status: store.StatusProcessing,
	}
	if err := m.deps.Store.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}
	log.Printf("[job %s] %s", j.ID, StageSubmitted)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		pctx := context.Background()
		if m.cfg.JobTimeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(pctx, m.cfg.JobTimeout)
			defer cancel()
		}
		m.run(pctx, j.ID, req)
	}()

	return j, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*store.Job, error) {
	return m.deps.Store.Get(ctx, id)
}

// Cleanup removes the job record. It returns store.ErrNotFound for unknown ids.
func (m *Manager) Cleanup(ctx context.Context, id string) error {
	if err := m.deps.Store.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[job %s] record cleaned up", id)
	return nil
}

// Wait blocks until every running pipeline has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) Ping(ctx context.Context) error {
	if err := m.deps.Store.Ping(ctx); err != nil {
		return fmt.Errorf("job store: %w", err)
	}
	if err := m.deps.Objects.Ping(ctx); err != nil {
		return fmt.Errorf("object store: %w", err)
	}
	return nil
}
