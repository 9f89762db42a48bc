// Package voice decides whether a captured recording is worth sending and
// drives bounded re-capture attempts when it is not.
package voice

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/dmcree/airlink/internal/observability"
)

// Format describes what the validator can see inside the capture bytes.
type Format string

const (
	// FormatPCM16 is raw 16-bit little-endian signed mono samples.
	FormatPCM16 Format = "pcm16"
	// FormatOpaque covers encoded captures where sample inspection is
	// impractical; validation degrades to the size heuristic.
	FormatOpaque Format = "opaque"
)

// Verdict reasons, fixed strings so they can label metrics.
const (
	ReasonOK           = "ok"
	ReasonTooSmall     = "too_small"
	ReasonSilent       = "silent_capture"
	ReasonSizeOnlyPass = "size_only"
)

// Verdict is the immutable outcome of one validation call.
type Verdict struct {
	OK     bool
	Reason string

	RMS           float64
	MeanAmplitude float64
	NoiseFloor    float64
	Bytes         int
	Duration      time.Duration
}

// ValidatorConfig holds the thresholds; zero values are filled from
// DefaultValidatorConfig by Validate.
type ValidatorConfig struct {
	MinBytes       int
	MinRMS         float64
	AnalysisWindow time.Duration
	SampleRate     int
}

func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MinBytes:       2048,
		MinRMS:         0.01,
		AnalysisWindow: 250 * time.Millisecond,
		SampleRate:     16000,
	}
}

func (c ValidatorConfig) withDefaults() ValidatorConfig {
	d := DefaultValidatorConfig()
	if c.MinBytes <= 0 {
		c.MinBytes = d.MinBytes
	}
	if c.MinRMS <= 0 {
		c.MinRMS = d.MinRMS
	}
	if c.AnalysisWindow <= 0 {
		c.AnalysisWindow = d.AnalysisWindow
	}
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	return c
}

// Validate scores a captured buffer. Pure: identical inputs always produce
// the identical verdict. PCM captures are judged on RMS energy over the
// leading analysis window; opaque formats only on size.
func Validate(cfg ValidatorConfig, raw []byte, format Format) Verdict {
	cfg = cfg.withDefaults()

	v := Verdict{Bytes: len(raw)}
	if len(raw) < cfg.MinBytes {
		v.Reason = ReasonTooSmall
		observability.RecordValidationVerdict(false, v.Reason)
		return v
	}

	if format != FormatPCM16 {
		v.OK = true
		v.Reason = ReasonSizeOnlyPass
		observability.RecordValidationVerdict(true, v.Reason)
		return v
	}

	totalSamples := len(raw) / 2
	v.Duration = time.Duration(totalSamples) * time.Second / time.Duration(cfg.SampleRate)

	window := int(int64(cfg.SampleRate) * int64(cfg.AnalysisWindow) / int64(time.Second))
	if window > totalSamples {
		window = totalSamples
	}

	var sumSq, sumAbs float64
	minAbs := math.Inf(1)
	for i := 0; i < window; i++ {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		amp := float64(s) / 32768.0
		abs := math.Abs(amp)
		sumSq += amp * amp
		sumAbs += abs
		if abs < minAbs {
			minAbs = abs
		}
	}
	if window > 0 {
		v.RMS = math.Sqrt(sumSq / float64(window))
		v.MeanAmplitude = sumAbs / float64(window)
		v.NoiseFloor = minAbs
	}

	if v.RMS < cfg.MinRMS {
		v.Reason = ReasonSilent
		observability.RecordValidationVerdict(false, v.Reason)
		return v
	}

	v.OK = true
	v.Reason = ReasonOK
	observability.RecordValidationVerdict(true, v.Reason)
	return v
}
