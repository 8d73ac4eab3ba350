package harness

import "fmt"

// BitrateConfig describes one bitrate selector position of the codec.
type BitrateConfig struct {
	BitsPerSecond int
	QualityTarget int
}

// BitrateConfigs maps the 3-bit bitrate selector to its configuration.
// Selector values above 7 are out of range and are used as deliberate
// error stimulus.
var BitrateConfigs = [8]BitrateConfig{
	{6000, 60},
	{8000, 65},
	{12000, 70},
	{16000, 75},
	{20000, 80},
	{24000, 85},
	{28000, 90},
	{32000, 95},
}

// BandwidthConfig describes one bandwidth selector position.
type BandwidthConfig struct {
	Name      string
	FreqRange string
}

// BandwidthConfigs maps the 2-bit bandwidth selector to its configuration.
var BandwidthConfigs = [3]BandwidthConfig{
	{"NarrowBand", "0-4kHz"},
	{"WideBand", "0-8kHz"},
	{"SuperWideBand", "0-16kHz"},
}

// describeConfig renders a selector pair for scenario descriptions and
// logs. Out-of-range selectors are labeled as such rather than rejected.
func describeConfig(bitrate, bandwidth uint64) string {
	br := fmt.Sprintf("invalid(%d)", bitrate)
	if bitrate < uint64(len(BitrateConfigs)) {
		br = fmt.Sprintf("%d bps", BitrateConfigs[bitrate].BitsPerSecond)
	}
	bw := fmt.Sprintf("invalid(%d)", bandwidth)
	if bandwidth < uint64(len(BandwidthConfigs)) {
		bw = BandwidthConfigs[bandwidth].Name
	}
	return br + ", " + bw
}
