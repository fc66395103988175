package audio

import "math"

// RMS returns the root mean square level of 16-bit mono PCM, normalized to
// 0..1. Useful as a cheap input level meter.
func RMS(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	var sum float64
	n := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		f := float64(sample) / 32768.0
		sum += f * f
		n++
	}
	return math.Sqrt(sum / float64(n))
}
