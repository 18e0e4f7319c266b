package streamer

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"
)

const statsPeriod = time.Second

type stats struct {
	since   time.Time
	frames  uint64
	bytes   uint64
	idle    uint64
	// latency sums capture-to-sent time over the frames of the period.
	latency time.Duration

	totalFrames uint64
	totalBytes  uint64
}

func (s *stats) reset(now time.Time) {
	s.since = now
	s.frames, s.bytes, s.idle, s.latency = 0, 0, 0, 0
}

func (s *stats) sent(n int, latency time.Duration) {
	s.frames++
	s.latency += latency
	s.bytes += uint64(n)
	s.totalFrames++
	s.totalBytes += uint64(n)
}

// maybeLog logs and resets the counters once per statsPeriod.
func (s *stats) maybeLog(ctx context.Context, now time.Time) {
	elapsed := now.Sub(s.since)
	if elapsed < statsPeriod {
		return
	}
	var (
		avg     uint64
		latency time.Duration
	)
	if s.frames > 0 {
		avg = s.bytes / s.frames
		latency = s.latency / time.Duration(s.frames)
	}
	logger.Debugf(ctx, "%.1f fps, %s/s, %s per frame, %v from capture to sent, %d polls without a frame",
		float64(s.frames)/elapsed.Seconds(),
		humanize.Bytes(uint64(float64(s.bytes)/elapsed.Seconds())),
		humanize.Bytes(avg),
		latency.Round(time.Microsecond),
		s.idle,
	)
	s.reset(now)
}
