// Package stimulus generates deterministic and randomized test input:
// audio frames in the four reference patterns, and synthetic packet
// payloads for decode-direction runs.
package stimulus

import (
	"math"
	"math/rand"
)

// Pattern selects an audio stimulus shape.
type Pattern string

const (
	// Sine is the fixed reference tone: 1 kHz at half scale.
	Sine Pattern = "sine"

	// Noise is uniform noise in a fixed amplitude band, reproducible
	// from the generator seed.
	Noise Pattern = "noise"

	// Silence is an all-zero frame.
	Silence Pattern = "silence"

	// Impulse is a single full-scale sample at the frame midpoint.
	Impulse Pattern = "impulse"
)

// Patterns lists the supported stimulus shapes in sweep order.
var Patterns = []Pattern{Sine, Noise, Silence, Impulse}

// Reference tone parameters.
const (
	sineFreqHz    = 1000
	sineAmplitude = 0.5

	// Unknown patterns fall back to a quieter, lower tone rather than
	// failing: pattern kind is test-author input, not adversarial.
	defaultFreqHz    = 500
	defaultAmplitude = 0.3

	noiseAmplitude = 16384
	fullScale      = 32767
)

// Generator produces stimulus data. The zero value is not usable; create
// one with New so the noise source is explicitly seeded.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator seeded for reproducible noise and packet data.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Frame generates one frame of frameLen 16-bit samples at the given sample
// rate. Unknown pattern kinds fall back to the low-amplitude default tone.
func (g *Generator) Frame(kind Pattern, frameLen, sampleRate int) []int16 {
	frame := make([]int16, frameLen)
	switch kind {
	case Sine:
		fillSine(frame, sineFreqHz, sineAmplitude, sampleRate)
	case Noise:
		for i := range frame {
			frame[i] = int16(g.rng.Intn(2*noiseAmplitude+1) - noiseAmplitude)
		}
	case Silence:
		// already zero
	case Impulse:
		frame[frameLen/2] = fullScale
	default:
		fillSine(frame, defaultFreqHz, defaultAmplitude, sampleRate)
	}
	return frame
}

// Packets generates n random byte payloads, standing in for an encoded
// stream when the decode path is driven without a prior encode.
func (g *Generator) Packets(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(g.rng.Intn(256))
	}
	return p
}

func fillSine(frame []int16, freqHz int, amplitude float64, sampleRate int) {
	for i := range frame {
		v := amplitude * float64(fullScale) * math.Sin(2*math.Pi*float64(freqHz)*float64(i)/float64(sampleRate))
		frame[i] = int16(v)
	}
}
