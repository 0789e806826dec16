package radar

import (
	"strings"
	"testing"
)

func TestCommandStrings(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		got  Command
		want string
	}{
		{SensorStart(), "sensorStart"},
		{SensorStop(), "sensorStop"},
		{FlushCfg(), "flushCfg"},
		{DfeDataOutputMode(), "dfeDataOutputMode 1"},
		{LowPower(), "lowPower 0 0"},
		{AdcCfg(), "adcCfg 2 1"},
		{AdcbufCfg(), "adcbufCfg -1 0 1 1 1"},
		{
			ProfileCfg(cfg),
			"profileCfg 0 77 10 6 63.14 0 0 63.343 1 256 5000 0 0 30",
		},
		{ChannelCfg(0b1111, 0b101), "channelCfg 15 5 0"},
		{ChirpCfg(0, 0), "chirpCfg 0 0 0 0 0 0 0 1"},
		{ChirpCfg(1, 2), "chirpCfg 1 1 0 0 0 0 0 4"},
		{FrameCfg(2, 64, 100), "frameCfg 0 2 64 0 100 1 0"},
		{LvdsStreamCfg(), "lvdsStreamCfg -1 0 0 0"},
	}
	for _, c := range cases {
		if got := c.got.String(); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}

func TestCompRangeBias(t *testing.T) {
	got := CompRangeBiasAndRxChanPhase(12).String()
	want := "compRangeBiasAndRxChanPhase 0.0" + strings.Repeat(" 0 1", 12)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBoilerplateDisablesDetection(t *testing.T) {
	cmds := Boilerplate()
	if len(cmds) == 0 {
		t.Fatal("no boilerplate commands")
	}
	seen := make(map[string]int)
	for _, c := range cmds {
		seen[c.Name]++
	}
	// Both CFAR directions must be configured.
	if seen["cfarCfg"] != 2 {
		t.Errorf("cfarCfg count = %d, want 2", seen["cfarCfg"])
	}
	if seen["clutterRemoval"] != 1 {
		t.Errorf("clutterRemoval count = %d, want 1", seen["clutterRemoval"])
	}
}
