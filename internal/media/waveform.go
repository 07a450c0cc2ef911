// Package media decodes uploaded audio into mono float32 waveforms and
// encodes waveform slices back into WAV for the ASR engines.
package media

// AnalysisRate is the fixed sample rate used for voice activity detection.
const AnalysisRate = 16000

// Waveform is mono PCM in the range [-1, 1].
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the length in seconds, or 0 when the rate is unknown.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Slice returns the samples in [start, end) clamped to the waveform bounds.
func (w Waveform) Slice(start, end int) []float32 {
	if start < 0 {
		start = 0
	}
	if end > len(w.Samples) {
		end = len(w.Samples)
	}
	if start >= end {
		return nil
	}
	return w.Samples[start:end]
}

// Downmix averages interleaved channels into one.
func Downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	mono := make([]float32, len(samples)/channels)
	for i := range mono {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// Resample converts samples from srcRate to dstRate with linear
// interpolation. The output length is len(samples)*dstRate/srcRate.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	out := make([]float32, outLen)
	ratio := float64(srcRate) / float64(dstRate)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}
