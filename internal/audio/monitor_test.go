package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testWindow = 100 * time.Millisecond // 1600 samples at SessionRate

func loudChunk(n int) []float32 {
	chunk := make([]float32, n)
	for i := range chunk {
		chunk[i] = 0.5
	}
	return chunk
}

func quietChunk(n int) []float32 {
	return make([]float32, n)
}

func TestRMS(t *testing.T) {
	require.Equal(t, 0.0, RMS(nil))
	require.InDelta(t, 0.5, RMS(loudChunk(100)), 1e-6)
	require.InDelta(t, 0.0, RMS(quietChunk(100)), 1e-9)
}

func TestMonitorEmitsAutoStopAfterSilenceWindow(t *testing.T) {
	m := NewMonitor(0.01, testWindow)

	m.Process(loudChunk(320))
	for i := 0; i < 5; i++ {
		m.Process(quietChunk(320)) // 1600 silent samples total
	}

	select {
	case buffer := <-m.AutoStop():
		// Trailing silence is trimmed: only the voiced prefix is forwarded.
		require.Len(t, buffer, 320)
		require.InDelta(t, 0.5, float64(buffer[0]), 1e-6)
	default:
		t.Fatal("expected auto-stop after silence window")
	}

	// The full buffer is untouched by the trim.
	require.Equal(t, 6*320, m.Len())
}

func TestMonitorVoiceResetsSilenceWindow(t *testing.T) {
	m := NewMonitor(0.01, testWindow)

	m.Process(loudChunk(320))
	m.Process(quietChunk(1280)) // almost a full window
	m.Process(loudChunk(320))   // resets
	m.Process(quietChunk(1280))

	select {
	case <-m.AutoStop():
		t.Fatal("auto-stop fired before a contiguous window elapsed")
	default:
	}

	m.Process(quietChunk(320)) // contiguous run reaches the window
	select {
	case buffer := <-m.AutoStop():
		require.Len(t, buffer, 320+1280+320)
	default:
		t.Fatal("expected auto-stop")
	}
}

func TestMonitorEmitsAtMostOncePerSilenceRun(t *testing.T) {
	m := NewMonitor(0.01, testWindow)

	m.Process(loudChunk(320))
	for i := 0; i < 20; i++ {
		m.Process(quietChunk(320))
	}

	<-m.AutoStop()
	select {
	case <-m.AutoStop():
		t.Fatal("second auto-stop for the same silence run")
	default:
	}
}

func TestMonitorPureSilenceTrimsToEmpty(t *testing.T) {
	m := NewMonitor(0.01, testWindow)

	for i := 0; i < 5; i++ {
		m.Process(quietChunk(320))
	}

	select {
	case buffer := <-m.AutoStop():
		require.Empty(t, buffer)
	default:
		t.Fatal("expected auto-stop for pure silence")
	}
}

func TestMonitorBufferIsACopy(t *testing.T) {
	m := NewMonitor(0.01, testWindow)
	m.Process(loudChunk(10))

	buffer := m.Buffer()
	buffer[0] = -1
	require.InDelta(t, 0.5, float64(m.Buffer()[0]), 1e-6)
}
