package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/perf-analysis/internal/anon"
	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/internal/tableio"
)

// debugCmd represents the debug command.
var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Anonymize a CSV table and emit the full provenance table",
	Long: `Like anonymize, but writes the 11-column debug table instead of the
production output: original and rewritten coordinates side by side, the
precision each row's cluster settled at, and one-hot id-safe/loc-safe/
unsafe flags.`,
	RunE: runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)
	bindAnonFlags(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := context.Background()

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

	run, err := engine.Apply(ctx, table, cfg)
	if recordErr := recordAudit(ctx, string(op.Mode), cfg, table.Len(), cfg.MinP, false, err); recordErr != nil {
		log.Warn("failed to write audit record: %v", recordErr)
	}
	if err != nil {
		return fmt.Errorf("anonymize: %w", err)
	}

	rewriter := anon.NewRowRewriter(grid)
	rows := rewriter.Debug(run, table, cfg.K)

	outFile, err := os.Create(anonOutput)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer outFile.Close()

	if err := writeDebugCSV(outFile, rows); err != nil {
		return fmt.Errorf("write debug output: %w", err)
	}

	log.Info("wrote %d provenance rows to %s", len(rows), anonOutput)
	return nil
}

// boolFlag renders a one-hot safety flag as the "0"/"1" spec requires
// rather than Go's "false"/"true".
func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func writeDebugCSV(f *os.File, rows []anon.DebugRow) error {
	w := csv.NewWriter(f)
	header := []string{"id", "time", "lat1", "lon1", "lat2", "lon2", "center_p", "line_p", "id_safe", "loc_safe", "unsafe"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ID,
			r.Time,
			strconv.FormatFloat(r.Lat1, 'g', -1, 64),
			strconv.FormatFloat(r.Lon1, 'g', -1, 64),
			strconv.FormatFloat(r.Lat2, 'g', -1, 64),
			strconv.FormatFloat(r.Lon2, 'g', -1, 64),
			strconv.Itoa(r.CenterP),
			strconv.Itoa(r.LineP),
			boolFlag(r.IDSafe),
			boolFlag(r.LocSafe),
			boolFlag(r.Unsafe),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
