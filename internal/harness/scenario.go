package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vyges/mlowtb/internal/stimulus"
)

// Mode selects what a scenario drives through the DUT.
type Mode string

const (
	// ModeReset verifies the post-reset state only.
	ModeReset Mode = "reset"

	// ModeEncode pushes audio frames in and collects encoded packets.
	ModeEncode Mode = "encode"

	// ModeDecode pushes a synthetic packet stream in and collects
	// decoded samples.
	ModeDecode Mode = "decode"

	// ModeRoundTrip encodes a frame, feeds the packets back through the
	// decoder and scores the reconstruction.
	ModeRoundTrip Mode = "roundtrip"
)

// Scenario is one (configuration, stimulus) test case. Constructed by the
// suite, executed once, discarded after its outcome is recorded.
//
// Selector values are deliberately NOT validated by the harness:
// out-of-range selectors are stimulus for the DUT's error path, part of
// the test matrix by design.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario verifies.
	Description string `yaml:"description,omitempty"`

	// Mode selects the drive direction: reset, encode, decode or
	// roundtrip.
	Mode Mode `yaml:"mode"`

	// Bitrate is the 3-bit bitrate selector value as driven.
	Bitrate uint64 `yaml:"bitrate,omitempty"`

	// Bandwidth is the 2-bit bandwidth selector value as driven.
	Bandwidth uint64 `yaml:"bandwidth,omitempty"`

	// Pattern selects the audio stimulus shape. Unknown values fall
	// back to the generator's default tone.
	Pattern stimulus.Pattern `yaml:"pattern,omitempty"`

	// Frames is how many frames to drive. Defaults to 1.
	Frames int `yaml:"frames,omitempty"`

	// ExpectError marks scenarios whose configuration must make the
	// DUT's error signal assert before the completion window elapses.
	ExpectError bool `yaml:"expect_error,omitempty"`

	// Backpressure holds the harness-side ready line deasserted for the
	// whole scenario. The DUT must stall gracefully, never error.
	Backpressure bool `yaml:"backpressure,omitempty"`

	// MinQuality is the round-trip score floor. Defaults to 30.
	MinQuality float64 `yaml:"min_quality,omitempty"`

	// StimulusTimeout is the per-item produce budget in cycles.
	// Defaults to 1000.
	StimulusTimeout int `yaml:"stimulus_timeout,omitempty"`

	// CollectTimeout is the consume stall budget in cycles.
	// Defaults to 10000.
	CollectTimeout int `yaml:"collect_timeout,omitempty"`
}

// Suite is a named, ordered list of scenarios executed top to bottom.
type Suite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Scenarios   []Scenario `yaml:"scenarios"`
}

// LoadSuite reads and parses a suite YAML file with strict field
// validation, so a typo like "scenario:" for "scenarios:" fails loudly.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// validateSuite checks required fields. Selector ranges and pattern names
// are intentionally unchecked (permissive stimulus).
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("scenarios list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenarios[%d]: name is required", i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("scenarios[%d]: duplicate name %q", i, sc.Name)
		}
		seen[sc.Name] = true

		switch sc.Mode {
		case ModeReset, ModeEncode, ModeDecode, ModeRoundTrip:
		case "":
			return fmt.Errorf("scenarios[%d] (%s): mode is required", i, sc.Name)
		default:
			return fmt.Errorf("scenarios[%d] (%s): unknown mode %q", i, sc.Name, sc.Mode)
		}

		if sc.Frames < 0 {
			return fmt.Errorf("scenarios[%d] (%s): frames must be non-negative", i, sc.Name)
		}
		if sc.StimulusTimeout < 0 || sc.CollectTimeout < 0 {
			return fmt.Errorf("scenarios[%d] (%s): timeouts must be non-negative", i, sc.Name)
		}
		if sc.MinQuality < 0 || sc.MinQuality > 100 {
			return fmt.Errorf("scenarios[%d] (%s): min_quality must be within [0,100]", i, sc.Name)
		}
	}
	return nil
}

// DefaultSuite builds the full conformance matrix: reset check, encode and
// decode sweeps over all 8x3 selector pairs, the pattern sweep, the
// multi-frame timing run, the error-path scenarios and the end-to-end
// round trip.
func DefaultSuite() *Suite {
	s := &Suite{
		Name:        "mlow-conformance",
		Description: "full configuration-matrix conformance run for the MLow codec",
	}

	s.Scenarios = append(s.Scenarios, Scenario{
		Name:        "reset-state",
		Description: "busy and error deassert immediately after two-phase reset",
		Mode:        ModeReset,
	})

	for b := uint64(0); b < uint64(len(BitrateConfigs)); b++ {
		for w := uint64(0); w < uint64(len(BandwidthConfigs)); w++ {
			s.Scenarios = append(s.Scenarios, Scenario{
				Name:        fmt.Sprintf("encode-b%d-w%d", b, w),
				Description: "encode sine frame at " + describeConfig(b, w),
				Mode:        ModeEncode,
				Bitrate:     b,
				Bandwidth:   w,
				Pattern:     stimulus.Sine,
			})
		}
	}
	for b := uint64(0); b < uint64(len(BitrateConfigs)); b++ {
		for w := uint64(0); w < uint64(len(BandwidthConfigs)); w++ {
			s.Scenarios = append(s.Scenarios, Scenario{
				Name:        fmt.Sprintf("decode-b%d-w%d", b, w),
				Description: "decode synthetic packet stream at " + describeConfig(b, w),
				Mode:        ModeDecode,
				Bitrate:     b,
				Bandwidth:   w,
			})
		}
	}

	for _, p := range stimulus.Patterns {
		s.Scenarios = append(s.Scenarios, Scenario{
			Name:        "pattern-" + string(p),
			Description: fmt.Sprintf("encode %s frame at %s", p, describeConfig(3, 1)),
			Mode:        ModeEncode,
			Bitrate:     3,
			Bandwidth:   1,
			Pattern:     p,
		})
	}

	s.Scenarios = append(s.Scenarios,
		Scenario{
			Name:        "performance-multiframe",
			Description: "five consecutive sine frames at " + describeConfig(0, 1) + " within the 20 ms budget",
			Mode:        ModeEncode,
			Bitrate:     0,
			Bandwidth:   1,
			Pattern:     stimulus.Sine,
			Frames:      5,
		},
		Scenario{
			Name:        "error-invalid-bitrate",
			Description: "out-of-range bitrate selector must assert the error signal",
			Mode:        ModeEncode,
			Bitrate:     15,
			Bandwidth:   1,
			Pattern:     stimulus.Sine,
			ExpectError: true,
		},
		Scenario{
			Name:        "error-invalid-bandwidth",
			Description: "out-of-range bandwidth selector must assert the error signal",
			Mode:        ModeEncode,
			Bitrate:     0,
			Bandwidth:   3,
			Pattern:     stimulus.Sine,
			ExpectError: true,
		},
		Scenario{
			Name:         "backpressure-hold",
			Description:  "held-low consumer ready must stall the DUT without asserting error",
			Mode:         ModeDecode,
			Bitrate:      0,
			Bandwidth:    1,
			Backpressure: true,
		},
		Scenario{
			Name:        "roundtrip-sine-b3-w1",
			Description: "end-to-end encode/decode round trip scored against the original frame",
			Mode:        ModeRoundTrip,
			Bitrate:     3,
			Bandwidth:   1,
			Pattern:     stimulus.Sine,
			MinQuality:  30,
		},
	)

	return s
}
