package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/perf-analysis/internal/anon"
	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/internal/audit"
	"github.com/perf-analysis/internal/sink"
	"github.com/perf-analysis/internal/tableio"
	"github.com/perf-analysis/pkg/config"
)

var (
	anonInput   string
	anonOutput  string
	anonMode    string
	anonK       int
	anonMinP    int
	anonMaxP    int
	anonBreakP  int
	anonAudit   string
	runUUID     string
	anonSinkDir string
)

// anonymizeCmd represents the anonymize command.
var anonymizeCmd = &cobra.Command{
	Use:   "anonymize",
	Short: "Anonymize a CSV table of (id, lat, lon, time) rows",
	Long: `Reads a CSV table, descends it through a hexagonal precision grid
until every surviving cluster represents at least K distinct entities,
and writes the production output: original ids and times, coordinates
replaced by each cluster's settled cell center.`,
	RunE: runAnonymize,
}

func init() {
	rootCmd.AddCommand(anonymizeCmd)
	bindAnonFlags(anonymizeCmd)
}

// bindAnonFlags registers the flag set shared by anonymize and debug.
func bindAnonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&anonInput, "input", "i", "", "Input CSV file (required)")
	cmd.Flags().StringVarP(&anonOutput, "output", "o", "", "Output CSV file (required)")
	cmd.Flags().StringVarP(&anonMode, "mode", "m", "strict", "Anonymization mode: strict, idhex, classic")
	cmd.Flags().IntVarP(&anonK, "k", "k", 5, "Minimum distinct entities per cluster")
	cmd.Flags().IntVar(&anonMinP, "min-p", 5, "Coarsest hex precision the descent will fall back to")
	cmd.Flags().IntVar(&anonMaxP, "max-p", 9, "Finest hex precision the descent starts from")
	cmd.Flags().IntVar(&anonBreakP, "break-p", 0, "Id-level/loc-level switch precision (idhex mode only)")
	cmd.Flags().StringVar(&anonAudit, "audit-db", "", "sqlite file recording one row per run (in-memory if empty)")
	cmd.Flags().StringVar(&runUUID, "uuid", "", "Run identifier, logged and used as the --sink-dir object name (generated if empty)")
	cmd.Flags().StringVar(&anonSinkDir, "sink-dir", "", "If set, also deliver the output table through internal/sink's local storage backend, under this directory")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := context.Background()

	tracer := otel.Tracer("hexanon/anonymize")
	ctx, span := tracer.Start(ctx, "anonymize")
	defer span.End()

	op, cfg, err := parseOperation()
	if err != nil {
		return err
	}

	if runUUID == "" {
		runUUID = uuid.NewString()
	}

	log.Info("=== hexanon anonymize ===")
	log.Info("input:  %s", anonInput)
	log.Info("output: %s", anonOutput)
	log.Info("mode:   %s (K=%d, min_p=%d, max_p=%d)", op.Mode, cfg.K, cfg.MinP, cfg.MaxP)
	log.Info("run:    %s", runUUID)

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

	start := time.Now()
	run, runErr := engine.Apply(ctx, table, cfg)
	elapsed := time.Since(start)

	finalP, dotLevel := cfg.MinP, false
	if run != nil {
		finalP, dotLevel = observeOutcome(run, table)
	}

	if auditErr := recordAudit(ctx, string(op.Mode), cfg, table.Len(), finalP, dotLevel, runErr); auditErr != nil {
		log.Warn("failed to write audit record: %v", auditErr)
	}

	if runErr != nil {
		return fmt.Errorf("anonymize: %w", runErr)
	}

	rewriter := anon.NewRowRewriter(grid)
	out := rewriter.Production(run, table)

	outFile, err := os.Create(anonOutput)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer outFile.Close()

	if err := tableio.Write(outFile, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if anonSinkDir != "" {
		storage, err := sink.NewStorage(&config.StorageConfig{Type: "local", LocalPath: anonSinkDir})
		if err != nil {
			return fmt.Errorf("open sink: %w", err)
		}
		key := runUUID + ".csv"
		if err := sink.WriteTable(ctx, storage, key, out); err != nil {
			return fmt.Errorf("write to sink: %w", err)
		}
		log.Info("delivered output to sink at %s/%s", anonSinkDir, key)
	}

	log.Info("anonymized %d rows in %s", table.Len(), elapsed)
	return nil
}

// parseOperation validates flags into an anon.Operation + anon.Params.
func parseOperation() (anon.Operation, anon.Params, error) {
	var mode anon.Mode
	switch anonMode {
	case "strict":
		mode = anon.ModeStrict
	case "idhex":
		mode = anon.ModeIdHex
	case "classic":
		mode = anon.ModeClassic
	default:
		return anon.Operation{}, anon.Params{}, fmt.Errorf("unknown mode %q (valid: strict, idhex, classic)", anonMode)
	}

	cfg := anon.Params{K: anonK, MinP: anonMinP, MaxP: anonMaxP, BreakP: anonBreakP}
	if err := cfg.Validate(); err != nil {
		return anon.Operation{}, anon.Params{}, err
	}
	return anon.Operation{Mode: mode, Params: cfg}, cfg, nil
}

// observeOutcome reports the coarsest precision any row in the run settled
// at, and whether any row needed the loc-level fallback.
func observeOutcome(run *anon.AnonRun, table *anon.Table) (finalP int, dotLevel bool) {
	finalP = -1
	for i := 0; i < table.Len(); i++ {
		_, p, dl, _, _ := run.ReportedCell(i)
		if finalP == -1 || p < finalP {
			finalP = p
		}
		dotLevel = dotLevel || dl
	}
	return finalP, dotLevel
}

func recordAudit(ctx context.Context, mode string, cfg anon.Params, rowCount, finalP int, dotLevel bool, runErr error) error {
	db, err := audit.Open(audit.Config{Path: anonAudit})
	if err != nil {
		return err
	}
	repo := audit.NewRepository(db)
	return repo.Record(ctx, mode, cfg, rowCount, finalP, dotLevel, runErr)
}
