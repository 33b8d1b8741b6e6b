package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/bunkhouse/internal/dataio"
	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/pipeline"
)

var (
	roomsPath  string
	peoplePath string
	inputPath  string
	outXLSX    string
	outJSON    string
	outMD      string
	pinsPath   string
	savePins   string
	noCache    bool
)

// placeCmd represents the place command
var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Assign attendees to beds and write the filled room map",
	Long: `Place reads the room map and the people list and:
- Cleans and validates both tables
- Normalizes organization and group spellings
- Resolves "attach" requests to people, groups or organizations
- Solves the bed assignment within the time limit
- Writes the filled room map with Unplaced, AttachWarnings and Summary sheets

Input is either two workbooks (--rooms, --people) or one YAML document
(--input). Pins from --pins fix people to rooms on top of every other rule.

Example:
  bunkhouse place
  bunkhouse place --rooms RoomMap.xlsx --people PeopleToPlace.xlsx --out FilledRoomMap.xlsx
  bunkhouse place --input retreat.yaml --json result.json --md result.md
  bunkhouse place --pins pins.yaml --time-limit 2m --save-pins pins.yaml`,
	Args: cobra.NoArgs,
	RunE: runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)

	// Input flags
	placeCmd.Flags().StringVar(&roomsPath, "rooms", "RoomMap.xlsx", "room map workbook")
	placeCmd.Flags().StringVar(&peoplePath, "people", "PeopleToPlace.xlsx", "people workbook")
	placeCmd.Flags().StringVar(&inputPath, "input", "", "YAML dataset (replaces --rooms and --people)")
	placeCmd.Flags().StringVar(&pinsPath, "pins", "", "YAML file of manual room pins")

	// Output flags
	placeCmd.Flags().StringVar(&outXLSX, "out", "FilledRoomMap.xlsx", "output workbook path")
	placeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	placeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	placeCmd.Flags().StringVar(&savePins, "save-pins", "", "write the placements as a pins file for later re-runs")

	// Solver flags
	placeCmd.Flags().Duration("time-limit", 30*time.Second, "solver time limit")
	placeCmd.Flags().Int("workers", 4, "parallel solver workers")
	placeCmd.Flags().Int64("seed", 1, "solver seed")
	placeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the solution cache (force a fresh solve)")

	_ = viper.BindPFlag("solver.time_limit", placeCmd.Flags().Lookup("time-limit"))
	_ = viper.BindPFlag("solver.workers", placeCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("solver.seed", placeCmd.Flags().Lookup("seed"))
}

func placeSource() dataio.Source {
	if inputPath != "" {
		return dataio.NewYAMLSource(inputPath)
	}
	return dataio.NewXLSXSource(roomsPath, peoplePath)
}

func runPlace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Time limit: %v\n", cfg.Solver.TimeLimit)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Solver.Workers)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, logger)

	ds, err := p.Load(ctx, placeSource())
	if err != nil {
		return err
	}

	pins, err := loadPins(ctx)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, ds, pins)
	if err != nil {
		return fmt.Errorf("placement failed: %w", err)
	}

	if err := p.RenderReport(cmd.OutOrStdout(), result, outXLSX, outJSON, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if savePins != "" {
		if err := dataio.WritePins(dataio.PinsFromResult(result), savePins); err != nil {
			return err
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote pins: %s\n", savePins)
		}
	}
	return nil
}

func loadPins(ctx context.Context) ([]model.Pin, error) {
	if pinsPath == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dataio.LoadPins(pinsPath)
}
