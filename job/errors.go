package job

import "fmt"

// Stage names a step of the clip pipeline.
type Stage string

const (
	StageSubmitted   Stage = "submitted"
	StageDownloading Stage = "downloading"
	StageTranscoding Stage = "transcoding"
	StageUploading   Stage = "uploading"
	StageReady       Stage = "ready"
	StageFailed      Stage = "error"
)

// StageError records which step of the pipeline failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
