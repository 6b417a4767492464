// Package profiler tracks frame rate and memory statistics for performance
// monitoring, logging a digest at a configurable interval.
package profiler

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Sample is one logged statistics window.
type Sample struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
}

// Profiler tracks frame timing and allocator churn. Call Tick once per frame.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	log            *logrus.Entry
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		log:            logrus.WithField("subsystem", "profiler"),
	}
}

// SetInterval changes how often Tick emits a statistics digest.
//
// Parameters:
//   - d: the new interval (minimum 100ms)
func (p *Profiler) SetInterval(d time.Duration) {
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	p.updateInterval = d
}

// Tick should be called once per frame to track frame timing. Logs a digest
// when the update interval has elapsed: FPS, heap usage, allocation rate, GC
// count and pause times, total memory.
//
// Returns:
//   - *Sample: the logged sample, or nil if the interval has not elapsed
func (p *Profiler) Tick() *Sample {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return nil
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)

	// Alloc is live heap; TotalAlloc is cumulative churn; Sys is the actual
	// process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	sample := &Sample{
		FPS:         fps,
		HeapMB:      allocMB,
		AllocRateMB: allocRateMB,
		GCCount:     gcCount,
		LastPauseUs: lastPauseUs,
		MaxPauseUs:  maxPauseUs,
		SysMB:       sysMB,
	}
	p.log.WithFields(logrus.Fields{
		"fps":           fps,
		"heap_mb":       allocMB,
		"alloc_mb_s":    allocRateMB,
		"gc":            gcCount,
		"last_pause_us": lastPauseUs,
		"max_pause_us":  maxPauseUs,
		"sys_mb":        sysMB,
	}).Info("frame stats")

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return sample
}
