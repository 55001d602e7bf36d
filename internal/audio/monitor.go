package audio

import (
	"math"
	"sync"
	"time"
)

// Monitor accumulates the session buffer and watches for sustained silence.
// Process is called from the capture goroutine; everything else may be
// called from the orchestration goroutine. The mutex covers only short
// appends and copies, so the capture side never blocks on consumers.
type Monitor struct {
	threshold     float64
	windowSamples int

	mu sync.Mutex
	// samples is the full 16kHz session buffer.
	samples []float32
	// silenceStart is the index of the first sample of the current
	// contiguous silent run; -1 while voice is live.
	silenceStart int
	emitted      bool

	autoStop chan []float32
}

// NewMonitor builds a monitor with an RMS threshold and a silence window.
func NewMonitor(threshold float64, window time.Duration) *Monitor {
	return &Monitor{
		threshold:     threshold,
		windowSamples: int(window.Seconds() * SessionRate),
		silenceStart:  -1,
		autoStop:      make(chan []float32, 1),
	}
}

// AutoStop delivers at most one trimmed buffer when the silence window
// elapses. The send is non-blocking on the capture side.
func (m *Monitor) AutoStop() <-chan []float32 {
	return m.autoStop
}

// Process appends one resampled chunk and advances silence tracking.
func (m *Monitor) Process(chunk []float32) {
	if len(chunk) == 0 {
		return
	}
	silent := RMS(chunk) < m.threshold

	var fire []float32

	m.mu.Lock()
	start := len(m.samples)
	m.samples = append(m.samples, chunk...)

	switch {
	case !silent:
		// Voice resets the window and re-arms auto-stop.
		m.silenceStart = -1
		m.emitted = false
	case m.silenceStart < 0:
		m.silenceStart = start
	}

	if !m.emitted && m.silenceStart >= 0 && len(m.samples)-m.silenceStart >= m.windowSamples {
		// Trim the whole silent run, not just the window, so the forwarded
		// buffer ends where speech ended.
		fire = make([]float32, m.silenceStart)
		copy(fire, m.samples[:m.silenceStart])
		m.emitted = true
	}
	m.mu.Unlock()

	if fire != nil {
		select {
		case m.autoStop <- fire:
		default:
		}
	}
}

// Buffer returns a copy of the full session buffer.
func (m *Monitor) Buffer() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, len(m.samples))
	copy(out, m.samples)
	return out
}

// Len returns the session buffer length in samples.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

// RMS computes root-mean-square energy of one chunk.
func RMS(chunk []float32) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var sum float64
	for _, s := range chunk {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(chunk)))
}
