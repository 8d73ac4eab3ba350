package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStats = `
=== mlow_codec ===

   Number of wires:               1042
   Number of wire bits:           8123
   Number of public wires:         137
   Number of public wire bits:    1893
   Number of memories:               2
   Number of memory bits:         7680
   Number of processes:              0
   Number of cells:               3217
     $_ANDNOT_                     412
     $_AND_                        188
     $_DFFE_PP_                    530
     $_DFF_P_                      231
     $_MUX_                        764
     $_NAND_                        96
     $_NOR_                         73
     $_NOT_                        140
     $_ORNOT_                       88
     $_OR_                         201
     $_XNOR_                        55
     $_XOR_                        439
`

func TestParseStatsLabeledFields(t *testing.T) {
	stats, err := ParseStats(strings.NewReader(sampleStats))
	require.NoError(t, err)

	assert.Equal(t, 3217, stats.Cells)
	assert.Equal(t, 1042, stats.Wires)
	assert.Equal(t, 8123, stats.WireBits)
	assert.Equal(t, 137, stats.PublicWires)
	assert.Equal(t, 1893, stats.PublicWireBits)
	assert.Equal(t, 2, stats.Memories)
	assert.Equal(t, 7680, stats.MemoryBits)
	assert.Equal(t, 0, stats.Processes)
}

func TestParseStatsCellBreakdown(t *testing.T) {
	stats, err := ParseStats(strings.NewReader(sampleStats))
	require.NoError(t, err)

	// Polarity variants of the same primitive are folded together.
	assert.Equal(t, 231, stats.CellBreakdown["DFF"])
	assert.Equal(t, 530, stats.CellBreakdown["DFFE"])
	assert.Equal(t, 764, stats.CellBreakdown["MUX"])
	assert.Equal(t, 439, stats.CellBreakdown["XOR"])
}

func TestParseStatsMissingFieldsStayZero(t *testing.T) {
	stats, err := ParseStats(strings.NewReader("Number of cells: 12\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Cells)
	assert.Equal(t, 0, stats.Wires)
}

func TestParseStatsRejectsUnrelatedInput(t *testing.T) {
	_, err := ParseStats(strings.NewReader("nothing to see here"))
	assert.Error(t, err)
}

func TestRenderMarkdown(t *testing.T) {
	stats, err := ParseStats(strings.NewReader(sampleStats))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	stats.RenderMarkdown(buf, "mlow_codec")
	out := buf.String()

	assert.Contains(t, out, "# Gate-Level Analysis: mlow_codec")
	assert.Contains(t, out, "| Cells | 3217 |")
	assert.Contains(t, out, "## Cell Breakdown")
	assert.Contains(t, out, "| MUX | 764 |")
}
