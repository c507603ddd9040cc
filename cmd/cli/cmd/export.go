package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/perf-analysis/internal/anon"
	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/internal/tableio"
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Anonymize a CSV table and write its debug rows as GeoJSON",
	Long: `Like debug, but instead of an 11-column CSV, writes a GeoJSON
FeatureCollection: one Point feature per row at its rewritten coordinate,
with the original coordinate, settled precision, and safety flags carried
as feature properties. Intended for direct loading into a map viewer.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	bindAnonFlags(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	op, cfg, err := parseOperation()
	if err != nil {
		return err
	}

	f, err := os.Open(anonInput)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	table, err := tableio.Read(f)
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	grid := hexgrid.New()
	engine, err := op.Resolve(grid)
	if err != nil {
		return err
	}
	if lg, ok := engine.(anon.Loggable); ok {
		lg.SetLogger(log)
	}

	run, err := engine.Apply(context.Background(), table, cfg)
	if err != nil {
		return fmt.Errorf("anonymize: %w", err)
	}

	rewriter := anon.NewRowRewriter(grid)
	rows := rewriter.Debug(run, table, cfg.K)
	fc := rowsToFeatureCollection(rows)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if err := os.WriteFile(anonOutput, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info("wrote %d GeoJSON features to %s", len(rows), anonOutput)
	return nil
}

// rowsToFeatureCollection turns each debug row into one GeoJSON Point
// feature at its rewritten coordinate, carrying the original location and
// the anonymization outcome as properties.
func rowsToFeatureCollection(rows []anon.DebugRow) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range rows {
		f := geojson.NewFeature(orb.Point{r.Lon2, r.Lat2})
		f.Properties = geojson.Properties{
			"id":       r.ID,
			"time":     r.Time,
			"orig_lon": r.Lon1,
			"orig_lat": r.Lat1,
			"center_p": r.CenterP,
			"line_p":   r.LineP,
			"id_safe":  r.IDSafe,
			"loc_safe": r.LocSafe,
			"unsafe":   r.Unsafe,
		}
		fc.Append(f)
	}
	return fc
}
