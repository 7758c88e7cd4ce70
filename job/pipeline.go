package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"clipwebapi/ffmpeg"
	"clipwebapi/storage"
	"clipwebapi/store"
	"clipwebapi/subtitle"
	"clipwebapi/ytdlp"
)

const finishTimeout = 10 * time.Second

// workFiles are the intermediate files of one job.
type workFiles struct {
	source   string
	output   string
	subs     string
	adjusted string
}

func (m *Manager) filesFor(id string) workFiles {
	source := filepath.Join(m.workDir, fmt.Sprintf("clip-%s.mp4", id))
	return workFiles{
		source:   source,
		output:   filepath.Join(m.workDir, fmt.Sprintf("clip-%s-fast.mp4", id)),
		subs:     ytdlp.SubtitlePath(source),
		adjusted: filepath.Join(m.workDir, fmt.Sprintf("clip-%s-adjusted.vtt", id)),
	}
}

func (f workFiles) remove() {
	for _, p := range []string{f.source, f.output, f.subs, f.adjusted} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove %s: %v", p, err)
		}
	}
}

// run executes the pipeline and writes exactly one terminal result.
func (m *Manager) run(ctx context.Context, id string, req Request) {
	files := m.filesFor(id)

	result, err := m.process(ctx, id, req, files)
	files.remove()

	if err != nil {
		log.Printf("[job %s] %s: %v", id, StageFailed, err)
		result = store.Failed(err.Error())
	} else {
		log.Printf("[job %s] %s: %s", id, StageReady, result.PublicURL)
	}

	fctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()
	if err := m.deps.Store.Finish(fctx, id, result); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			log.Printf("[job %s] record was cleaned up before completion", id)
		case errors.Is(err, store.ErrAlreadyFinished):
			log.Printf("[job %s] record already finished", id)
		default:
			log.Printf("[job %s] failed to record result: %v", id, err)
		}
	}
}

func (m *Manager) process(ctx context.Context, id string, req Request, files workFiles) (store.Result, error) {
	log.Printf("[job %s] %s %s [%s-%s]", id, StageDownloading, req.URL, req.StartTime, req.EndTime)
	err := m.deps.Downloader.Download(ctx, ytdlp.DownloadRequest{
		URL:       req.URL,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		FormatID:  req.FormatID,
		Subtitles: req.Subtitles,
		Output:    files.source,
	})
	if err != nil {
		return store.Result{}, stageErr(StageDownloading, err)
	}
	if err := m.checkDownload(files.source); err != nil {
		return store.Result{}, stageErr(StageDownloading, err)
	}

	log.Printf("[job %s] %s", id, StageTranscoding)
	filters := m.filters(ctx, id, req, files)
	err = m.deps.Transcoder.Transcode(ctx, ffmpeg.TranscodeRequest{
		Input:   files.source,
		Output:  files.output,
		Filters: filters,
	})
	if err != nil {
		return store.Result{}, stageErr(StageTranscoding, err)
	}

	log.Printf("[job %s] %s", id, StageUploading)
	data, err := os.ReadFile(files.output)
	if err != nil {
		return store.Result{}, stageErr(StageUploading, err)
	}
	key := storage.ClipKey(id)
	if err := m.deps.Objects.Put(ctx, key, data, "video/mp4"); err != nil {
		return store.Result{}, stageErr(StageUploading, err)
	}

	return store.Ready(m.deps.Objects.PublicURL(key), key), nil
}

func (m *Manager) checkDownload(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("downloaded file not found")
		}
		return err
	}
	if info.Size() < m.cfg.MinDownloadSize {
		return fmt.Errorf("downloaded file is too small (%d bytes)", info.Size())
	}
	return nil
}

// filters builds the crop and subtitle filters. Probe and subtitle problems
// are logged and the corresponding filter is skipped.
func (m *Manager) filters(ctx context.Context, id string, req Request, files workFiles) []string {
	var filters []string

	aspect, _ := ffmpeg.ParseAspectRatio(req.AspectRatio)
	if aspect != ffmpeg.AspectOriginal {
		dims, err := m.deps.Prober.Probe(ctx, files.source)
		if err != nil {
			log.Printf("[job %s] probe failed, keeping original framing: %v", id, err)
		} else if crop := ffmpeg.CropFilter(aspect, dims); crop != "" {
			filters = append(filters, crop)
		}
	}

	if req.Subtitles {
		if _, err := os.Stat(files.subs); err != nil {
			log.Printf("[job %s] no subtitles available, continuing without them", id)
		} else if err := subtitle.AdjustFile(files.subs, files.adjusted, req.StartTime); err != nil {
			log.Printf("[job %s] subtitle adjustment failed, continuing without them: %v", id, err)
		} else {
			filters = append(filters, ffmpeg.SubtitlesFilter(files.adjusted))
		}
	}

	return filters
}
