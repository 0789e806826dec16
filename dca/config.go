package dca

import "time"

// dcaBitrate is the capture card's gigabit ethernet line rate, in bits/sec.
const dcaBitrate = 1e9

// Config holds the capture card network parameters.
//
// SysIP is the address of the host interface facing the capture card and
// should be configured with a /24 netmask. SocketBuffer must stay below the
// kernel's net.core.rmem_max for the full size to take effect.
type Config struct {
	SysIP        string        `yaml:"sys_ip"`
	FPGAIP       string        `yaml:"fpga_ip"`
	DataPort     int           `yaml:"data_port"`
	ConfigPort   int           `yaml:"config_port"`
	Timeout      time.Duration `yaml:"timeout"`
	SocketBuffer int           `yaml:"socket_buffer"`
	Delay        float64       `yaml:"delay"`
}

// DefaultConfig returns the factory-default addressing of the DCA1000EVM.
func DefaultConfig() Config {
	return Config{
		SysIP:        "192.168.33.30",
		FPGAIP:       "192.168.33.180",
		DataPort:     4098,
		ConfigPort:   4096,
		Timeout:      time.Second,
		SocketBuffer: 2048000,
		Delay:        5.0,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SysIP == "" {
		c.SysIP = d.SysIP
	}
	if c.FPGAIP == "" {
		c.FPGAIP = d.FPGAIP
	}
	if c.DataPort == 0 {
		c.DataPort = d.DataPort
	}
	if c.ConfigPort == 0 {
		c.ConfigPort = d.ConfigPort
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.SocketBuffer == 0 {
		c.SocketBuffer = d.SocketBuffer
	}
	if c.Delay == 0 {
		c.Delay = d.Delay
	}
	return c
}

// Throughput returns the theoretical maximum data rate in bits/sec, given
// full-size packets separated by the programmed inter-packet delay in
// microseconds.
func (c Config) Throughput() float64 {
	packetTime := MaxBytesPerPacket*8/float64(dcaBitrate) + c.Delay/1e6
	return 1 / packetTime * MaxBytesPerPacket * 8
}
