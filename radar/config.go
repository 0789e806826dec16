// Package radar configures and controls TI AWR-family mmWave radar sensors
// over their UART command console.
package radar

import "fmt"

// speedOfLight in m/s.
const speedOfLight = 299792458.0

// maxSampleRate is the AWR1843 ADC limit, in ksps (datasheet sec. 7.7).
const maxSampleRate = 12500

// Config holds the chirp timing and antenna parameters of a radar capture.
// Times are in microseconds unless noted otherwise. The TI mmWave sensing
// estimator is a convenient way to produce a consistent set of values.
type Config struct {
	// Frequency is the chirp start frequency in GHz; 76 or 77.
	Frequency float64 `yaml:"frequency"`
	// IdleTime, ADCStartTime, RampEndTime, and TXStartTime are the chirp
	// timing parameters from the TI ramp timing calculator.
	IdleTime     float64 `yaml:"idle_time"`
	ADCStartTime float64 `yaml:"adc_start_time"`
	RampEndTime  float64 `yaml:"ramp_end_time"`
	TXStartTime  float64 `yaml:"tx_start_time"`
	// FreqSlope is the chirp slope in MHz/us.
	FreqSlope float64 `yaml:"freq_slope"`
	// ADCSamples is the number of samples per chirp.
	ADCSamples int `yaml:"adc_samples"`
	// SampleRate is the ADC sampling rate in ksps.
	SampleRate int `yaml:"sample_rate"`
	// FrameLength is the number of chirps per TX antenna per frame; must be
	// a power of two.
	FrameLength int `yaml:"frame_length"`
	// FramePeriod is the frame periodicity in ms.
	FramePeriod float64 `yaml:"frame_period"`
	// NumTX and NumRX are the enabled antenna counts.
	NumTX int `yaml:"num_tx"`
	NumRX int `yaml:"num_rx"`
}

// Validate checks the hard constraints on a configuration. Soft conditions
// (duty cycle, ramp timing) are reported by Check instead.
func (c Config) Validate() error {
	if c.FrameLength <= 0 || c.FrameLength&(c.FrameLength-1) != 0 {
		return fmt.Errorf("radar: frame_length %d is not a power of two", c.FrameLength)
	}
	if c.NumTX < 2 || c.NumTX > 4 {
		return fmt.Errorf("radar: num_tx %d out of range [2, 4]", c.NumTX)
	}
	if c.Frequency != 76.0 && c.Frequency != 77.0 {
		return fmt.Errorf("radar: frequency %v GHz unsupported (76 or 77)", c.Frequency)
	}
	if c.SampleRate <= 0 || c.SampleRate > maxSampleRate {
		return fmt.Errorf("radar: sample_rate %d ksps out of range (0, %d]", c.SampleRate, maxSampleRate)
	}
	if c.ADCSamples <= 0 {
		return fmt.Errorf("radar: adc_samples %d must be positive", c.ADCSamples)
	}
	if c.NumRX <= 0 {
		return fmt.Errorf("radar: num_rx %d must be positive", c.NumRX)
	}
	return nil
}

// Shape is the radar data cube shape: frame length, TX, RX, samples.
func (c Config) Shape() [4]int {
	return [4]int{c.FrameLength, c.NumTX, c.NumRX, c.ADCSamples}
}

// RawShape is the IIQQ data shape, with the sample axis doubled for the
// interleaved int16 I and Q parts.
func (c Config) RawShape() [4]int {
	return [4]int{c.FrameLength, c.NumTX, c.NumRX, c.ADCSamples * 2}
}

// FrameSize is the radar data cube size in bytes.
func (c Config) FrameSize() int {
	return c.FrameLength * c.NumTX * c.NumRX * c.ADCSamples * 2 * 2
}

// ChirpTime is the per-TX-antenna inter-chirp time T_c, in us.
func (c Config) ChirpTime() float64 {
	return (c.IdleTime + c.RampEndTime) * float64(c.NumTX)
}

// FrameTime is the total active frame time, in ms.
func (c Config) FrameTime() float64 {
	return c.ChirpTime() * float64(c.FrameLength) / 1e3
}

// SampleTime is the total ADC sampling time T_s, in us.
func (c Config) SampleTime() float64 {
	return float64(c.ADCSamples) / float64(c.SampleRate) * 1e3
}

// Bandwidth is the effective swept bandwidth, in MHz.
func (c Config) Bandwidth() float64 {
	return c.FreqSlope * c.SampleTime()
}

// RangeResolution is the range bin size, in m.
func (c Config) RangeResolution() float64 {
	return speedOfLight / (2 * c.Bandwidth() * 1e6)
}

// MaxRange is the unambiguous range, in m.
func (c Config) MaxRange() float64 {
	return c.RangeResolution() * float64(c.ADCSamples)
}

// Wavelength is the center wavelength in m, evaluated at the middle of the
// sampling window rather than the ramp start.
func (c Config) Wavelength() float64 {
	offsetTime := c.ADCStartTime + c.SampleTime()/2
	return speedOfLight / (c.Frequency*1e9 + c.FreqSlope*offsetTime*1e6)
}

// DopplerResolution is the Doppler bin size, in m/s.
func (c Config) DopplerResolution() float64 {
	return c.Wavelength() / (2 * float64(c.FrameLength) * c.ChirpTime() * 1e-6)
}

// MaxDoppler is the unambiguous Doppler velocity, in m/s.
func (c Config) MaxDoppler() float64 {
	return c.Wavelength() / (4 * c.ChirpTime() * 1e-6)
}

// Throughput is the average data rate, in bits/sec.
func (c Config) Throughput() float64 {
	return float64(c.FrameSize()) * 8 / c.FramePeriod * 1e3
}

// CheckReport carries the soft-validity conditions of a configuration.
// Both are advisory: the caller decides whether to proceed.
type CheckReport struct {
	// DutyCycle is active frame time over frame period; must be < 1 for the
	// radar to idle between frames.
	DutyCycle float64
	// ExcessRampTime is the ramp time left after sampling completes, in us;
	// if negative the ADC is still sampling when the ramp ends and the tail
	// samples are corrupt.
	ExcessRampTime float64
}

// OK reports whether both soft conditions hold.
func (r CheckReport) OK() bool {
	return r.DutyCycle < 1 && r.ExcessRampTime > 0
}

func (r CheckReport) String() string {
	return fmt.Sprintf("duty cycle (<1): %.3f, excess ramp time (>0): %.1fus",
		r.DutyCycle, r.ExcessRampTime)
}

// Check evaluates the soft-validity conditions.
func (c Config) Check() CheckReport {
	return CheckReport{
		DutyCycle:      c.FrameTime() / c.FramePeriod,
		ExcessRampTime: c.RampEndTime - c.ADCStartTime - c.SampleTime(),
	}
}

// FPS is the configured frame rate in frames per second.
func (c Config) FPS() float64 {
	return 1000.0 / c.FramePeriod
}
