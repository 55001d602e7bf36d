package transcribe

import (
	"bytes"
	"encoding/binary"
	"math"
)

// encodePCM16WAV renders mono float32 samples as a 16-bit PCM WAV blob with
// a minimal 44-byte header.
func encodePCM16WAV(samples []float32, sampleRate int) []byte {
	const bitsPerSample = 16
	const channels = 1
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	dataSize := uint32(len(samples) * 2)
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], dataSize)
	buf.Write(header)

	frame := make([]byte, 2)
	for _, sample := range samples {
		scaled := sample * math.MaxInt16
		switch {
		case scaled > math.MaxInt16:
			scaled = math.MaxInt16
		case scaled < math.MinInt16:
			scaled = math.MinInt16
		}
		binary.LittleEndian.PutUint16(frame, uint16(int16(scaled)))
		buf.Write(frame)
	}
	return buf.Bytes()
}
