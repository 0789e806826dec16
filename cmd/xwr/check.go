package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radarlab/goxwr/dca"
	"github.com/radarlab/goxwr/logging"
)

var flagPing bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a capture configuration and report derived quantities",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagPing, "ping", false, "also verify the capture card is reachable")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	r := cfg.Radar

	fmt.Printf("device:             %s\n", cfg.Device)
	fmt.Printf("frame size:         %d bytes\n", r.FrameSize())
	fmt.Printf("frame rate:         %.2f fps\n", r.FPS())
	fmt.Printf("range resolution:   %.4f m\n", r.RangeResolution())
	fmt.Printf("max range:          %.2f m\n", r.MaxRange())
	fmt.Printf("doppler resolution: %.4f m/s\n", r.DopplerResolution())
	fmt.Printf("max doppler:        %.2f m/s\n", r.MaxDoppler())
	fmt.Printf("throughput:         %.1f / %.1f Mbit/s\n",
		r.Throughput()/1e6, cfg.Capture.Throughput()/1e6)

	report := r.Check()
	fmt.Printf("timing:             %s\n", report)
	if !report.OK() {
		return fmt.Errorf("timing check failed")
	}

	if !flagPing {
		return nil
	}
	card, err := dca.Dial(cfg.Capture, log)
	if err != nil {
		return err
	}
	defer card.Close()
	if err := card.SystemAliveness(); err != nil {
		return fmt.Errorf("capture card unreachable: %w", err)
	}
	major, minor, playback, err := card.ReadFPGAVersion()
	if err != nil {
		return err
	}
	log.Info("capture card alive",
		logging.Field{Key: "fpga_version", Value: fmt.Sprintf("%d.%d", major, minor)},
		logging.Field{Key: "playback", Value: playback})
	return nil
}
