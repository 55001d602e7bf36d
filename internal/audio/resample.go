package audio

// SessionRate is the fixed sample rate of session buffers handed to the
// transcriber.
const SessionRate = 16000

// Resampler converts mono float32 audio from a source rate to a destination
// rate by linear interpolation. It keeps the last input sample so chunk
// boundaries interpolate correctly across calls.
type Resampler struct {
	srcRate int
	dstRate int

	// pos is the fractional read position into the virtual input stream,
	// measured in source samples relative to prev.
	pos    float64
	prev   float32
	primed bool
}

// NewResampler builds a resampler from srcRate to dstRate.
func NewResampler(srcRate, dstRate int) *Resampler {
	return &Resampler{srcRate: srcRate, dstRate: dstRate}
}

// Resample converts one chunk. When source and destination rates are equal
// the input is returned as-is.
func (r *Resampler) Resample(in []float32) []float32 {
	if r.srcRate == r.dstRate {
		return in
	}
	if len(in) == 0 {
		return nil
	}

	step := float64(r.srcRate) / float64(r.dstRate)

	// Prepend the carried sample so interpolation can reach back across the
	// previous chunk boundary.
	samples := in
	if r.primed {
		samples = make([]float32, 0, len(in)+1)
		samples = append(samples, r.prev)
		samples = append(samples, in...)
	}

	out := make([]float32, 0, int(float64(len(in))/step)+1)
	for ; r.pos < float64(len(samples)-1); r.pos += step {
		i := int(r.pos)
		frac := float32(r.pos - float64(i))
		out = append(out, samples[i]+(samples[i+1]-samples[i])*frac)
	}

	// Carry the final sample and rebase the position against it.
	r.prev = samples[len(samples)-1]
	r.primed = true
	r.pos -= float64(len(samples) - 1)

	return out
}
