package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/radarlab/goxwr"
	"github.com/radarlab/goxwr/logging"
	"github.com/radarlab/goxwr/rsp"
)

var (
	flagCalibrate int
	flagWindow    bool
)

var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Stream live frames through the processing pipeline",
	Args:  cobra.NoArgs,
	RunE:  runSpectrum,
}

func init() {
	spectrumCmd.Flags().StringVar(&flagSerial, "serial", "/dev/ttyACM0", "radar console serial port")
	spectrumCmd.Flags().IntVarP(&flagFrames, "frames", "n", 100, "number of frames to process")
	spectrumCmd.Flags().IntVar(&flagCalibrate, "calibrate", 0, "background frames for zero-doppler calibration")
	spectrumCmd.Flags().BoolVar(&flagWindow, "window", true, "window the range and doppler axes")
	rootCmd.AddCommand(spectrumCmd)
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	device, err := rsp.ParseDevice(cfg.Device)
	if err != nil {
		return err
	}
	pipe := rsp.New(device, rsp.Options{
		Window: rsp.Window{Range: flagWindow, Doppler: flagWindow},
	})
	calib := rsp.NewCalibrator(pipe)

	card, ctrl, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer card.Close()
	defer ctrl.Close()

	sys := goxwr.NewSystem(cfg, goxwr.NewCaptureCard(card), ctrl, log)
	src, err := sys.DStream(4)
	if err != nil {
		return err
	}
	defer sys.Stop()

	shape := cfg.Radar.Shape()
	frameShape := []int{1, shape[0], shape[1], shape[2], shape[3]}

	if flagCalibrate > 0 {
		if err := fitBackground(src, calib, cfg, flagCalibrate); err != nil {
			return err
		}
		log.Info("calibration complete", logging.Field{Key: "frames", Value: flagCalibrate})
	}

	for i := 0; i < flagFrames; i++ {
		frame, ok := src.Next()
		if !ok {
			return fmt.Errorf("capture ended after %d of %d frames", i, flagFrames)
		}
		samples, err := rsp.BytesToSamples(frame.Data)
		if err != nil {
			return err
		}
		complexSamples, err := rsp.DeinterleaveIIQQ(samples)
		if err != nil {
			return err
		}
		spec, err := calib.Process(&rsp.Tensor{Shape: frameShape, Data: complexSamples})
		if err != nil {
			return err
		}
		rangeBin, peak := peakRange(spec)
		fmt.Printf("frame %4d: peak %.1f at %.2f m\n",
			i, peak, float64(rangeBin)*cfg.Radar.RangeResolution())
	}
	return nil
}

// fitBackground collects background frames into one batch tensor and
// fits the calibrator on it.
func fitBackground(src goxwr.FrameSource, calib *rsp.Calibrator, cfg *goxwr.Config, n int) error {
	shape := cfg.Radar.Shape()
	frameLen := shape[0] * shape[1] * shape[2] * shape[3]
	batch := rsp.NewTensor(n, shape[0], shape[1], shape[2], shape[3])
	for i := 0; i < n; i++ {
		frame, ok := src.Next()
		if !ok {
			return fmt.Errorf("capture ended during calibration")
		}
		samples, err := rsp.BytesToSamples(frame.Data)
		if err != nil {
			return err
		}
		complexSamples, err := rsp.DeinterleaveIIQQ(samples)
		if err != nil {
			return err
		}
		copy(batch.Data[i*frameLen:], complexSamples)
	}
	return calib.Calibrate(batch)
}

// peakRange finds the strongest return summed over all but the range
// axis.
func peakRange(s *rsp.Spectrum) (bin int, power float64) {
	ranges := s.Shape[len(s.Shape)-1]
	sums := make([]float64, ranges)
	for i, v := range s.Data {
		sums[i%ranges] += v
	}
	best := math.Inf(-1)
	for i, v := range sums {
		if v > best {
			best, bin = v, i
		}
	}
	return bin, best
}
