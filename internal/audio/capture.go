package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// captureFragmentBytes keeps Pulse deliveries near 20ms at 48kHz mono f32.
const captureFragmentBytes = 3840

// Capture is one live record stream. Frames arrive on the Pulse callback
// goroutine, are resampled to SessionRate, and land in the monitor; nothing
// on that path blocks on consumers.
type Capture struct {
	device  Device
	client  *pulse.Client
	stream  *pulse.RecordStream
	resamp  *Resampler
	monitor *Monitor

	mu      sync.Mutex
	stopped bool

	inflight sync.WaitGroup
	samples  atomic.Int64
}

// startCapture opens a mono float32 record stream at the device's rate.
func startCapture(device Device, monitor *Monitor) (*Capture, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	capture := &Capture{
		device:  device,
		client:  client,
		resamp:  NewResampler(device.SampleRate, SessionRate),
		monitor: monitor,
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatFloat32LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(device.SampleRate),
		pulse.RecordBufferFragmentSize(captureFragmentBytes),
		pulse.RecordMediaName("duatalk dictation"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()
	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// SamplesCaptured reports total session-rate samples accepted so far.
func (c *Capture) SamplesCaptured() int64 {
	return c.samples.Load()
}

// AutoStop exposes the monitor's silence auto-stop channel.
func (c *Capture) AutoStop() <-chan []float32 {
	return c.monitor.AutoStop()
}

// Stop synchronously detaches the stream and returns a copy of the session
// buffer. No append lands after Stop returns; calling Stop again returns
// the same buffer.
func (c *Capture) Stop() ([]float32, error) {
	c.mu.Lock()
	alreadyStopped := c.stopped
	c.stopped = true
	c.mu.Unlock()

	if !alreadyStopped {
		c.stream.Stop()
		c.stream.Close()
		c.client.Close()
		c.inflight.Wait()
	}

	return c.monitor.Buffer(), nil
}

// onPCM receives raw float32 frames from Pulse, resamples, and appends.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as c.stopped to avoid Add/Wait races.
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	chunk := c.resamp.Resample(decodeFloat32LE(buffer))
	c.samples.Add(int64(len(chunk)))
	c.monitor.Process(chunk)

	return len(buffer), nil
}

// decodeFloat32LE converts little-endian float32 frames to samples,
// ignoring a trailing partial frame.
func decodeFloat32LE(buffer []byte) []float32 {
	n := len(buffer) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(buffer[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
