package radar

import (
	"strconv"
	"strings"
)

// Command is a single console command for the TI demo firmware. Builders
// below produce Commands with the parameter layouts the firmware expects;
// assembling them structurally (instead of interpolating free-form strings)
// keeps malformed argument lists out of the device.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

func cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// SensorStart starts chirping.
func SensorStart() Command { return cmd("sensorStart") }

// SensorStop stops chirping.
func SensorStop() Command { return cmd("sensorStop") }

// FlushCfg clears any previously staged configuration.
func FlushCfg() Command { return cmd("flushCfg") }

// DfeDataOutputMode selects the frame mode; only legacy frame-based chirps
// (mode 1) are used here.
func DfeDataOutputMode() Command { return cmd("dfeDataOutputMode", "1") }

// LowPower configures the low power mode; disabled (0 0) for these devices.
func LowPower() Command { return cmd("lowPower", "0", "0") }

// AdcCfg fixes the ADC at 16-bit complex 1x output.
func AdcCfg() Command { return cmd("adcCfg", "2", "1") }

// AdcbufCfg fixes the ADC buffer at complex format, Q-in-LSB sample swap,
// non-interleaved channels, chirp threshold 1, for all subframes.
func AdcbufCfg() Command { return cmd("adcbufCfg", "-1", "0", "1", "1", "1") }

// ProfileCfg configures chirp profile 0 from the capture configuration.
// TX output power and phase shifter stay 0 (the only tested values); the
// high-pass corner frequencies stay at their lowest settings (175kHz and
// 350kHz) and RX gain at 30dB.
func ProfileCfg(c Config) Command {
	return cmd("profileCfg",
		"0",
		ftoa(c.Frequency),
		ftoa(c.IdleTime),
		ftoa(c.ADCStartTime),
		ftoa(c.RampEndTime),
		"0",
		"0",
		ftoa(c.FreqSlope),
		ftoa(c.TXStartTime),
		itoa(c.ADCSamples),
		itoa(c.SampleRate),
		"0",
		"0",
		"30",
	)
}

// ChannelCfg enables the given RX and TX antenna bitmasks.
func ChannelCfg(rxMask, txMask int) Command {
	return cmd("channelCfg", itoa(rxMask), itoa(txMask), "0")
}

// ChirpCfg assigns chirp index idx to the single TX antenna tx (0-based),
// inheriting profile 0 with no frequency or timing dither.
func ChirpCfg(idx, tx int) Command {
	return cmd("chirpCfg",
		itoa(idx), itoa(idx), "0", "0", "0", "0", "0", itoa(1<<tx))
}

// FrameCfg sequences chirps 0..chirpEnd with numLoops repetitions per frame
// at the given period in ms, running until stopped, software triggered.
func FrameCfg(chirpEnd, numLoops int, period float64) Command {
	return cmd("frameCfg",
		"0", itoa(chirpEnd), itoa(numLoops), "0", ftoa(period), "1", "0")
}

// CompRangeBiasAndRxChanPhase applies neutral compensation (zero range bias,
// unit phase) for all pairs TX-RX pairs.
func CompRangeBiasAndRxChanPhase(pairs int) Command {
	args := make([]string, 0, 1+2*pairs)
	args = append(args, "0.0")
	for i := 0; i < pairs; i++ {
		args = append(args, "0", "1")
	}
	return Command{Name: "compRangeBiasAndRxChanPhase", Args: args}
}

// LvdsStreamCfg enables hardware ADC streaming over LVDS with no HSI
// header, for all subframes.
func LvdsStreamCfg() Command { return cmd("lvdsStreamCfg", "-1", "0", "0", "0") }

// Boilerplate returns the mandatory-but-irrelevant demo firmware commands:
// the on-chip detection chain is configured but disabled so it cannot
// disturb the LVDS stream.
func Boilerplate() []Command {
	return []Command{
		cmd("guiMonitor", "-1", "0", "0", "0", "0", "0", "0"),
		// cfarCfg runs twice, once per processing direction.
		cmd("cfarCfg", "-1", "0", "0", "4", "2", "3", "1", "15", "1"),
		cmd("cfarCfg", "-1", "1", "0", "4", "2", "3", "1", "15", "1"),
		cmd("multiObjBeamForming", "-1", "0", "0.5"),
		cmd("calibDcRangeSig", "-1", "0", "-5", "8", "256"),
		cmd("clutterRemoval", "-1", "0"),
		cmd("aoaFovCfg", "-1", "-90", "90", "-90", "90"),
		cmd("cfarFovCfg", "-1", "0", "0", "0"),
		cmd("cfarFovCfg", "-1", "1", "0", "0"),
		cmd("measureRangeBiasAndRxChanPhase", "0", "1.5", "0.2"),
		cmd("extendedMaxVelocity", "-1", "0"),
		cmd("CQRxSatMonitor", "0", "3", "5", "121", "0"),
		cmd("CQSigImgMonitor", "0", "127", "4"),
		cmd("analogMonitor", "0", "0"),
		cmd("calibData", "0", "0", "0"),
	}
}
