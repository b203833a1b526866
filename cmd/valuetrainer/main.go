package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/gdamore/tcell/v2"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"github.com/jsvensson/valuetrainer"
	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/format"
	"github.com/jsvensson/valuetrainer/internal/preset"
	"github.com/jsvensson/valuetrainer/internal/scale"
)

var (
	flagConfig     string
	flagPresets    []string
	flagReportURL  string
	flagReportFile string
	flagSound      bool
	flagWatch      bool
	flagLogFile    string
	flagVerbose    int
	flagPreset     string
	flagCount      int
	flagSeed       uint64
	flagCheck      bool
	version        = "dev" // Injected at build time via ldflags
)

var errUnformatted = errors.New("some files are not formatted")

var rootCmd = &cobra.Command{
	Use:     "valuetrainer",
	Short:   "Train your eye for color value in the terminal",
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a training session",
	Long: `Start a training session. A swatch bounces along a lightness scale;
stop it on the step whose value matches the swatch and press enter.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the available presets",
	Args:  cobra.NoArgs,
	RunE:  runPresets,
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print sample swatch colors and the steps they belong to",
	Args:  cobra.NoArgs,
	RunE:  runSample,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format trainer config files",
	Long:  "Format one or more trainer config files in-place. Prints the name of each file that was modified.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFmt,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to trainer HCL file")

	runCmd.Flags().StringArrayVar(&flagPresets, "preset", nil, "preset to train on (can be repeated to rotate)")
	runCmd.Flags().StringVar(&flagReportURL, "report-url", "", "post each result to this URL")
	runCmd.Flags().StringVar(&flagReportFile, "report-file", "", "append each result to this JSON lines file")
	runCmd.Flags().BoolVar(&flagSound, "sound", false, "play a tone on each judgment")
	runCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "reload presets from --config when it changes")
	runCmd.Flags().StringVar(&flagLogFile, "log-file", "", "write logs to this file")
	runCmd.Flags().CountVarP(&flagVerbose, "verbose", "v", "log more (repeat for debug output)")

	sampleCmd.Flags().StringVar(&flagPreset, "preset", preset.DefaultName, "preset to sample from")
	sampleCmd.Flags().IntVar(&flagCount, "count", 5, "number of colors to sample")
	sampleCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "random seed (0 picks one)")

	fmtCmd.Flags().BoolVarP(&flagCheck, "check", "c", false, "check if files are formatted (do not write changes)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if flagWatch && flagConfig == "" {
		return errors.New("--watch needs --config")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("run needs an interactive terminal")
	}
	// The session owns the terminal, so logs only go to a file.
	if flagLogFile != "" {
		commonlog.Configure(flagVerbose, &flagLogFile)
	}

	cfg, err := valuetrainer.Load(flagConfig)
	if err != nil {
		return err
	}
	if len(flagPresets) > 0 {
		cfg.Trainer.Presets = flagPresets
	}
	if flagReportURL != "" {
		cfg.Trainer.ReportURL = flagReportURL
	}
	if flagReportFile != "" {
		cfg.Trainer.ReportFile = flagReportFile
	}
	if cmd.Flags().Changed("sound") {
		cfg.Trainer.Sound = flagSound
	}

	trainer, err := valuetrainer.New(cfg)
	if err != nil {
		return err
	}
	defer trainer.Close()
	if flagWatch {
		trainer.Watch(flagConfig)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := trainer.Run(ctx, screen); err != nil {
		return err
	}

	stats := trainer.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%d exercises, %d exact, mean score %.2f\n", stats.Count, stats.Correct, stats.Mean())
	return nil
}

func registry() (*preset.Registry, error) {
	cfg, err := valuetrainer.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	return cfg.Registry()
}

func runPresets(cmd *cobra.Command, args []string) error {
	reg, err := registry()
	if err != nil {
		return err
	}

	out := termenv.NewOutput(cmd.OutOrStdout())
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tCOLORS\tHUE\t")
	for _, p := range reg.All() {
		fmt.Fprintf(w, "%s\t%d\t%s\t[%g, %g)\t%s\n",
			p.Name, p.Steps, p.Colors.Name, p.Colors.Hue.Lo, p.Colors.Hue.Hi,
			swatch(out, p.Colors.Representative()))
	}
	return w.Flush()
}

func runSample(cmd *cobra.Command, args []string) error {
	reg, err := registry()
	if err != nil {
		return err
	}
	p, err := reg.Lookup(flagPreset)
	if err != nil {
		return err
	}
	sc, err := scale.New(p.Steps, float64(p.Steps), 1)
	if err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	r := rand.New(rand.NewPCG(seed, seed))

	out := termenv.NewOutput(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "%s, seed %d\n", p, seed)
	for range flagCount {
		c := p.Sample(r)
		step := sc.StepOfColor(c)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %-22s step %d of %d %s\n",
			swatch(out, c), c.Hex(), c, step, p.Steps, swatch(out, sc.StepColorAt(step)))
	}
	return nil
}

// swatch renders two cells in c. Without color support it renders blanks.
func swatch(out *termenv.Output, c color.Color) string {
	return out.String("  ").Background(out.Color(c.Hex())).String()
}

func runFmt(cmd *cobra.Command, args []string) error {
	hasErrors := false
	needsFormatting := false

	for _, path := range args {
		ok, err := format.File(path, !flagCheck)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error formatting %s: %v\n", path, err)
			hasErrors = true
			continue
		}
		if ok {
			continue
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		needsFormatting = true
	}

	if hasErrors {
		return errors.New("formatting failed")
	}
	if flagCheck && needsFormatting {
		return errUnformatted
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
