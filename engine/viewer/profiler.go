package viewer

import (
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// Profiler tracks frame rate, pose evaluation time and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	logger         *log.Logger
	now            func() time.Time
	frameCount     int
	evalTotal      time.Duration
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfileReport is one interval's worth of statistics.
type ProfileReport struct {
	FPS         float64
	AvgEval     time.Duration
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	MaxPauseUs  uint64
}

// NewProfiler creates a new Profiler reporting every interval.
//
// Parameters:
//   - logger: the logger reports are written to
//   - interval: the report interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *log.Logger, interval time.Duration) *Profiler {
	return &Profiler{
		logger:         logger,
		now:            time.Now,
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick should be called once per frame with the time spent evaluating poses that frame.
// Logs statistics when the update interval has elapsed.
//
// Parameters:
//   - eval: the pose evaluation time of this frame
//
// Returns:
//   - *ProfileReport: the logged report, or nil if the interval has not elapsed
func (p *Profiler) Tick(eval time.Duration) *ProfileReport {
	p.frameCount++
	p.evalTotal += eval

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return nil
	}

	runtime.ReadMemStats(&p.memStats)
	r := &ProfileReport{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		AvgEval:     p.evalTotal / time.Duration(p.frameCount),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}

	// PauseNs is a circular buffer of the last 256 GC pauses.
	start := p.lastGCCount
	if r.GCCount-start > 256 {
		start = r.GCCount - 256
	}
	for i := start; i < r.GCCount; i++ {
		r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.logger.Info("profiler",
		"fps", r.FPS,
		"eval", r.AvgEval,
		"heap_mb", r.HeapMB,
		"alloc_mb_s", r.AllocRateMB,
		"gc", r.GCCount,
		"max_pause_us", r.MaxPauseUs,
	)

	p.frameCount = 0
	p.evalTotal = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r
}
