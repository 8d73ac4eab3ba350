package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/montanaflynn/stats"
)

// Outcome is the recorded result of one executed scenario. Outcomes are
// never mutated after recording.
type Outcome struct {
	Scenario string `json:"scenario"`
	Passed   bool   `json:"passed"`

	// ErrorObserved is the DUT's error signal as observed, not inferred.
	ErrorObserved bool `json:"error_observed"`

	// LatencyNs is the stimulation latency in simulated nanoseconds.
	// Nil when the scenario did not reach the point of measuring one.
	LatencyNs *int64 `json:"latency_ns,omitempty"`

	// Quality is the round-trip quality score, or the DUT's own quality
	// metric for encode-only scenarios. Nil when not applicable.
	Quality *float64 `json:"quality,omitempty"`

	// Detail carries the failure reason for diagnostics.
	Detail string `json:"detail,omitempty"`
}

// Stats holds min/mean/max over one sample list.
type Stats struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// Summary is the run-level aggregate computed by Summarize.
type Summary struct {
	Total      int     `json:"total"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	PassRate   float64 `json:"pass_rate"`
	ErrorCount int     `json:"error_count"`

	// Latency and Quality are nil when no scenario produced a sample;
	// an empty run yields an explicit no-data summary, never a division
	// error.
	Latency *Stats `json:"latency_ns,omitempty"`
	Quality *Stats `json:"quality,omitempty"`

	NoData bool `json:"no_data,omitempty"`
}

// Aggregator accumulates outcomes for one harness run.
//
// Single-writer: the orchestrator appends outcomes strictly sequentially;
// Summarize is called once at the end of the run.
type Aggregator struct {
	outcomes   []Outcome
	summarized bool
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends an outcome. Panics if called after Summarize; the
// aggregator is read-only once the run has been summarized.
func (a *Aggregator) Record(o Outcome) {
	if a.summarized {
		panic("results: Record after Summarize")
	}
	a.outcomes = append(a.outcomes, o)
}

// Outcomes returns the recorded outcomes in recording order.
func (a *Aggregator) Outcomes() []Outcome {
	return a.outcomes
}

// Summarize computes the run aggregate and freezes the aggregator.
func (a *Aggregator) Summarize() Summary {
	a.summarized = true

	if len(a.outcomes) == 0 {
		return Summary{NoData: true}
	}

	s := Summary{Total: len(a.outcomes)}
	var latencies, qualities []float64
	for _, o := range a.outcomes {
		if o.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
		if o.ErrorObserved {
			s.ErrorCount++
		}
		if o.LatencyNs != nil {
			latencies = append(latencies, float64(*o.LatencyNs))
		}
		if o.Quality != nil {
			qualities = append(qualities, *o.Quality)
		}
	}
	s.PassRate = float64(s.Passed) / float64(s.Total)
	s.Latency = sampleStats(latencies)
	s.Quality = sampleStats(qualities)
	return s
}

// sampleStats computes min/mean/max, or nil for an empty sample list.
func sampleStats(samples []float64) *Stats {
	if len(samples) == 0 {
		return nil
	}
	min, err := stats.Min(samples)
	if err != nil {
		return nil
	}
	mean, err := stats.Mean(samples)
	if err != nil {
		return nil
	}
	max, err := stats.Max(samples)
	if err != nil {
		return nil
	}
	return &Stats{Min: min, Mean: mean, Max: max}
}

// Render writes the human-readable summary block.
func (s Summary) Render(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "MLOW CODEC TEST RESULTS")
	fmt.Fprintln(w, rule)

	if s.NoData {
		fmt.Fprintln(w, "No scenarios recorded.")
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintf(w, "Tests Passed: %d\n", s.Passed)
	fmt.Fprintf(w, "Tests Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Total Tests: %d\n", s.Total)
	fmt.Fprintf(w, "Pass Rate: %.1f%%\n", s.PassRate*100)
	if s.Latency != nil {
		fmt.Fprintf(w, "Average Latency: %.1f ns\n", s.Latency.Mean)
		fmt.Fprintf(w, "Max Latency: %.1f ns\n", s.Latency.Max)
		fmt.Fprintf(w, "Min Latency: %.1f ns\n", s.Latency.Min)
	}
	if s.Quality != nil {
		fmt.Fprintf(w, "Average Quality: %.1f\n", s.Quality.Mean)
	}
	fmt.Fprintf(w, "Error Count: %d\n", s.ErrorCount)
	fmt.Fprintln(w, rule)
}
