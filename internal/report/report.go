// Package report extracts synthesis statistics from Yosys stat output and
// renders a summary document. It is a standalone reporting utility
// consumed by the CLI, independent of the protocol harness.
package report

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
)

// SynthStats holds the labeled fields of a Yosys statistics dump plus the
// per-cell-type breakdown.
type SynthStats struct {
	Cells          int `json:"cells"`
	Wires          int `json:"wires"`
	WireBits       int `json:"wire_bits"`
	PublicWires    int `json:"public_wires"`
	PublicWireBits int `json:"public_wire_bits"`
	Ports          int `json:"ports"`
	PortBits       int `json:"port_bits"`
	Memories       int `json:"memories"`
	MemoryBits     int `json:"memory_bits"`
	Processes      int `json:"processes"`

	// CellBreakdown maps cell type (AND, DFF, MUX, ...) to its count.
	CellBreakdown map[string]int `json:"cell_breakdown,omitempty"`
}

// Labeled field contract of the stat dump. The field names are fixed by
// the synthesis flow; parsing is by label, never by position.
var fieldPatterns = []struct {
	re  *regexp.Regexp
	set func(*SynthStats, int)
}{
	{regexp.MustCompile(`Number of cells:\s+(\d+)`), func(s *SynthStats, v int) { s.Cells = v }},
	{regexp.MustCompile(`Number of wires:\s+(\d+)`), func(s *SynthStats, v int) { s.Wires = v }},
	{regexp.MustCompile(`Number of wire bits:\s+(\d+)`), func(s *SynthStats, v int) { s.WireBits = v }},
	{regexp.MustCompile(`Number of public wires:\s+(\d+)`), func(s *SynthStats, v int) { s.PublicWires = v }},
	{regexp.MustCompile(`Number of public wire bits:\s+(\d+)`), func(s *SynthStats, v int) { s.PublicWireBits = v }},
	{regexp.MustCompile(`Number of ports:\s+(\d+)`), func(s *SynthStats, v int) { s.Ports = v }},
	{regexp.MustCompile(`Number of port bits:\s+(\d+)`), func(s *SynthStats, v int) { s.PortBits = v }},
	{regexp.MustCompile(`Number of memories:\s+(\d+)`), func(s *SynthStats, v int) { s.Memories = v }},
	{regexp.MustCompile(`Number of memory bits:\s+(\d+)`), func(s *SynthStats, v int) { s.MemoryBits = v }},
	{regexp.MustCompile(`Number of processes:\s+(\d+)`), func(s *SynthStats, v int) { s.Processes = v }},
}

// cellPattern matches Yosys primitive cell breakdown lines like
// "     $_DFF_P_     231".
var cellPattern = regexp.MustCompile(`(?m)^\s+\$_([A-Z]+)_?[A-Z0-9_]*\s+(\d+)\s*$`)

// ParseStats parses a Yosys stat dump. A dump with none of the labeled
// fields is rejected; individually missing fields stay zero.
func ParseStats(r io.Reader) (*SynthStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	content := string(data)

	stats := &SynthStats{CellBreakdown: make(map[string]int)}
	found := false
	for _, fp := range fieldPatterns {
		if m := fp.re.FindStringSubmatch(content); m != nil {
			v, convErr := strconv.Atoi(m[1])
			if convErr != nil {
				return nil, fmt.Errorf("parse stats field %q: %w", m[0], convErr)
			}
			fp.set(stats, v)
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("no synthesis statistics found in input")
	}

	for _, m := range cellPattern.FindAllStringSubmatch(content, -1) {
		v, convErr := strconv.Atoi(m[2])
		if convErr != nil {
			continue
		}
		stats.CellBreakdown[m[1]] += v
	}
	return stats, nil
}

// RenderMarkdown writes the summary document for one synthesized module.
func (s *SynthStats) RenderMarkdown(w io.Writer, module string) {
	fmt.Fprintf(w, "# Gate-Level Analysis: %s\n\n", module)
	fmt.Fprintln(w, "## Synthesis Statistics")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "|--------|-------|")
	fmt.Fprintf(w, "| Cells | %d |\n", s.Cells)
	fmt.Fprintf(w, "| Wires | %d |\n", s.Wires)
	fmt.Fprintf(w, "| Wire bits | %d |\n", s.WireBits)
	fmt.Fprintf(w, "| Public wires | %d |\n", s.PublicWires)
	fmt.Fprintf(w, "| Public wire bits | %d |\n", s.PublicWireBits)
	fmt.Fprintf(w, "| Ports | %d |\n", s.Ports)
	fmt.Fprintf(w, "| Port bits | %d |\n", s.PortBits)
	fmt.Fprintf(w, "| Memories | %d |\n", s.Memories)
	fmt.Fprintf(w, "| Memory bits | %d |\n", s.MemoryBits)
	fmt.Fprintf(w, "| Processes | %d |\n", s.Processes)

	if len(s.CellBreakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "## Cell Breakdown")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Cell type | Count |")
		fmt.Fprintln(w, "|-----------|-------|")
		types := make([]string, 0, len(s.CellBreakdown))
		for t := range s.CellBreakdown {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(w, "| %s | %d |\n", t, s.CellBreakdown[t])
		}
	}
}
