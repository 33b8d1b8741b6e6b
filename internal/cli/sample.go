package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/bunkhouse/internal/dataio"
)

var (
	sampleFormat string
	sampleDir    string
)

// sampleCmd represents the sample command
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a demo room map and people list",
	Long: `Sample writes a small demo retreat: nine rooms in three buildings and
fifteen attendees, including mutual room requests and accessibility needs.

Example:
  bunkhouse sample
  bunkhouse sample --format yaml --dir ./demo`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds := dataio.SampleDataset()
		out := cmd.OutOrStdout()

		if err := os.MkdirAll(sampleDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		switch sampleFormat {
		case "xlsx":
			rooms := filepath.Join(sampleDir, "RoomMap.xlsx")
			people := filepath.Join(sampleDir, "PeopleToPlace.xlsx")
			if err := dataio.WriteDatasetXLSX(ds, rooms, people); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "✓ Wrote %s\n✓ Wrote %s\n", rooms, people)
		case "yaml":
			path := filepath.Join(sampleDir, "retreat.yaml")
			if err := dataio.WriteDatasetYAML(ds, path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "✓ Wrote %s\n", path)
		default:
			return fmt.Errorf("unknown format %q (want xlsx or yaml)", sampleFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().StringVar(&sampleFormat, "format", "xlsx", "output format: xlsx or yaml")
	sampleCmd.Flags().StringVar(&sampleDir, "dir", ".", "output directory")
}
