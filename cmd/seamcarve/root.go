package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seamcarve/seamcarve"
	"github.com/seamcarve/seamcarve/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const banner = `
┌─┐┌─┐┌─┐┌┬┐┌─┐┌─┐┬─┐┬  ┬┌─┐
└─┐├┤ ├─┤│││  ├─┤├┬┘└┐┌┘├┤
└─┘└─┘┴ ┴┴ ┴└─┘┴ ┴┴└─ └┘ └─┘

Content aware image resizing by seam carving.`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

type options struct {
	in, out             string
	width, height       float64
	newWidth, newHeight int
	seamColor           string
	seamOp              string
	quality             int
	energyOut, seamOut  string
	report              bool
	workers             int
	configPath          string
	verbose             bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:           "seamcarve",
		Short:         "Content aware image resizing",
		Long:          banner,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &o, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&o.in, "in", "i", pipeName, "source image, directory or URL (- for stdin)")
	f.StringVarP(&o.out, "out", "o", pipeName, "destination image or directory (- for stdout)")
	f.Float64VarP(&o.width, "width", "W", 1, "target width as a fraction of the original")
	f.Float64VarP(&o.height, "height", "H", 1, "target height as a fraction of the original")
	f.IntVar(&o.newWidth, "new-width", 0, "target width in pixels, overrides --width")
	f.IntVar(&o.newHeight, "new-height", 0, "target height in pixels, overrides --height")
	f.StringVar(&o.seamColor, "seam-color", "", "color of the seam on the overlay image (hex)")
	f.StringVar(&o.seamOp, "seam-op", "", "composite operation painting the seam color (src_over, src_atop, xor...)")
	f.IntVar(&o.quality, "quality", seamcarve.DefaultQuality, "JPEG quality")
	f.StringVar(&o.energyOut, "energy-out", "", "save the last energy map to this file")
	f.StringVar(&o.seamOut, "seam-out", "", "save the last seam overlay to this file")
	f.BoolVar(&o.report, "report", false, "print a timing report")
	f.IntVar(&o.workers, "conc", 0, "number of files to process concurrently")
	f.StringVar(&o.configPath, "config", "", "configuration file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose logging")

	return cmd
}

// newLogger creates a logger writing timestamped messages to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func run(cmd *cobra.Command, o *options, stderr io.Writer) error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("seam-color") {
		cfg.SeamColor = o.seamColor
	}
	if flags.Changed("quality") {
		cfg.Quality = o.quality
	}
	if flags.Changed("conc") {
		cfg.Workers = o.workers
	}
	if flags.Changed("report") {
		cfg.Report = o.report
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("--width and --height must be greater than zero")
	}
	if o.newWidth < 0 || o.newHeight < 0 {
		return fmt.Errorf("--new-width and --new-height must not be negative")
	}

	level := log.InfoLevel
	if o.verbose {
		level = log.DebugLevel
	}
	logger := newLogger(stderr, level)

	p := &seamcarve.Processor{
		Width:     o.width,
		Height:    o.height,
		NewWidth:  o.newWidth,
		NewHeight: o.newHeight,
		SeamColor: cfg.SeamColor,
		SeamOp:    o.seamOp,
		Quality:   cfg.Quality,
		EnergyOut: o.energyOut,
		SeamOut:   o.seamOut,
		Report:    cfg.Report,
		Logger:    logger,
		Out:       stderr,
	}
	ops := &seamcarve.Ops{
		Src:      o.in,
		Dst:      o.out,
		PipeName: pipeName,
		Workers:  cfg.Workers,
	}

	var spinner *utils.Spinner
	if useSpinner(o, cfg, stderr) {
		msg := fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ SEAMCARVE", utils.StatusMessage),
			utils.DecorateText("⇢ carving image (be patient, it may take a while)...", utils.DefaultMessage),
		)
		spinner = utils.NewSpinner(stderr, msg, 80*time.Millisecond, true)
		// Keep the spinner line clean, only warnings and errors get through.
		p.Logger = newLogger(stderr, log.WarnLevel)
		spinner.Start()
	}

	start := time.Now()
	err = p.Execute(cmd.Context(), ops)

	if spinner != nil {
		if err != nil {
			spinner.StopMsg = fmt.Sprintf("%s %s\n",
				utils.DecorateText("⚡ SEAMCARVE ⇢ carving image failed", utils.DefaultMessage),
				utils.DecorateText("✘", utils.ErrorMessage),
			)
		} else {
			spinner.StopMsg = fmt.Sprintf("%s %s\n",
				utils.DecorateText("⚡ SEAMCARVE ⇢", utils.DefaultMessage),
				utils.DecorateText("the image has been carved successfully ✔", utils.SuccessMessage),
			)
		}
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	logger.Info("execution time", "elapsed", utils.FormatTime(time.Since(start)))
	return nil
}

// useSpinner reports whether the progress indicator can be shown without
// mixing with other output: stderr is a terminal, nothing else is printed
// during the run and a single image is processed.
func useSpinner(o *options, cfg Config, stderr io.Writer) bool {
	f, ok := stderr.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	if o.verbose || cfg.Report {
		return false
	}
	if fi, err := os.Stat(o.in); err == nil && fi.IsDir() {
		return false
	}
	return true
}
