package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radarlab/goxwr"
	"github.com/radarlab/goxwr/dca"
	"github.com/radarlab/goxwr/logging"
	"github.com/radarlab/goxwr/radar"
)

var (
	flagSerial     string
	flagLowLatency bool
	flagFrames     int
	flagOutput     string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record raw radar frames to a file",
	Args:  cobra.NoArgs,
	RunE:  runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&flagSerial, "serial", "/dev/ttyACM0", "radar console serial port")
	captureCmd.Flags().BoolVar(&flagLowLatency, "low-latency", false, "request low latency mode on the serial port")
	captureCmd.Flags().IntVarP(&flagFrames, "frames", "n", 100, "number of frames to record")
	captureCmd.Flags().StringVarP(&flagOutput, "output", "o", "capture.bin", "output file")
	rootCmd.AddCommand(captureCmd)
}

// connect dials both devices and configures the capture card.
func connect(cfg *goxwr.Config, log logging.Logger) (*dca.Client, *radar.AWR1843, error) {
	card, err := dca.Dial(cfg.Capture, log)
	if err != nil {
		return nil, nil, err
	}
	if err := card.Setup(cfg.Capture.Delay, dca.TwoLane); err != nil {
		card.Close()
		return nil, nil, err
	}
	ctrl, err := radar.DialWith(flagSerial, radar.DialOptions{LowLatency: flagLowLatency}, log)
	if err != nil {
		card.Close()
		return nil, nil, err
	}
	return card, ctrl, nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	card, ctrl, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer card.Close()
	defer ctrl.Close()

	out, err := os.Create(flagOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	sys := goxwr.NewSystem(cfg, goxwr.NewCaptureCard(card), ctrl, log)
	src, err := sys.Stream()
	if err != nil {
		return err
	}
	defer sys.Stop()

	incomplete := 0
	for i := 0; i < flagFrames; i++ {
		frame, ok := src.Next()
		if !ok {
			return fmt.Errorf("capture ended after %d of %d frames", i, flagFrames)
		}
		if !frame.Complete {
			incomplete++
		}
		if _, err := out.Write(frame.Data); err != nil {
			return err
		}
	}
	log.Info("capture complete",
		logging.Field{Key: "frames", Value: flagFrames},
		logging.Field{Key: "incomplete", Value: incomplete},
		logging.Field{Key: "file", Value: flagOutput})
	return nil
}
