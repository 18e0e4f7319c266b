package streamer

import "fmt"

// Stage names a step of the per-frame pipeline.
type Stage string

const (
	StageCapture   Stage = "capture"
	StageConvert   Stage = "convert"
	StageTransform Stage = "transform"
	StageEncode    Stage = "encode"
	StageCompress  Stage = "compress"
	StageSend      Stage = "send"
)

// StageError is a terminal error of the session together with the stage
// that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
