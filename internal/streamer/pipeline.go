package streamer

import (
	"time"

	"github.com/thorpelawrence/scvr/internal/compress"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/imaging"
	"github.com/thorpelawrence/scvr/internal/stereo"
)

// Pipeline turns one raw capture into one wire payload.
type Pipeline struct {
	transformer *stereo.Transformer
	encoder     encoder.Encoder
	format      compress.Format
	level       compress.Level
}

func NewPipeline(
	transformer *stereo.Transformer,
	enc encoder.Encoder,
	format compress.Format,
	level compress.Level,
) *Pipeline {
	return &Pipeline{
		transformer: transformer,
		encoder:     enc,
		format:      format,
		level:       level,
	}
}

// Process runs convert, transform, encode and compress in that order. A
// failure is returned as a *StageError.
func (p *Pipeline) Process(raw imaging.RawFrame, now time.Time) ([]byte, error) {
	img, err := imaging.Convert(raw)
	if err != nil {
		return nil, stageErr(StageConvert, err)
	}
	canvas, err := p.transformer.Transform(img, now)
	if err != nil {
		return nil, stageErr(StageTransform, err)
	}
	encoded, err := p.encoder.Encode(canvas)
	if err != nil {
		return nil, stageErr(StageEncode, err)
	}
	payload, err := compress.Compress(encoded, p.level, p.format)
	if err != nil {
		return nil, stageErr(StageCompress, err)
	}
	return payload, nil
}
