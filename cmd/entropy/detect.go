package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thiagojm/rng_trials/bbusb"
	"github.com/Thiagojm/rng_trials/camera"
	"github.com/Thiagojm/rng_trials/pseudorng"
	"github.com/Thiagojm/rng_trials/truerng"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "List available coin sources and capture devices",
		RunE:  runDetect,
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	out := cmd.OutOrStdout()

	if ok, _ := pseudorng.Detect(); ok {
		fmt.Fprintln(out, "pseudo: available")
	}

	if port, err := truerng.FindPort(); err == nil {
		fmt.Fprintf(out, "trng: %s\n", port)
	} else {
		fmt.Fprintf(out, "trng: %v\n", err)
	}

	devices, err := bbusb.Enumerate()
	switch {
	case err != nil:
		log.Warn("bitb detection failed", "error", err)
		fmt.Fprintln(out, "bitb: detection failed")
	case len(devices) == 0:
		fmt.Fprintln(out, "bitb: No BitBabbler devices found (VID 0x0403 PID 0x7840)")
	default:
		for i, d := range devices {
			fmt.Fprintf(out, "bitb: device %d: %s\n", i+1, d)
		}
	}

	cams, err := camera.List()
	if err != nil {
		return err
	}
	if len(cams) == 0 {
		fmt.Fprintln(out, "camera: none")
	}
	for _, c := range cams {
		fmt.Fprintf(out, "camera: %s\n", c)
	}
	return nil
}
