package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/perf-analysis/internal/anon"
	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/internal/tableio"
	"github.com/perf-analysis/pkg/parallel"
	"github.com/perf-analysis/pkg/utils"
)

var batchWorkers int

// batchCmd anonymizes every CSV in a directory concurrently, one worker
// pool task per file, reusing the same flag set as anonymize.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Anonymize every CSV file under a directory concurrently",
	Long: `Like anonymize, but -i and -o name directories: every *.csv file
under the input directory is anonymized independently and written under
the output directory with the same base name. Files are processed
concurrently by a bounded worker pool.`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	bindAnonFlags(batchCmd)
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Worker pool size (defaults to NumCPU clamped to [2, 8])")
}

type batchJob struct {
	inPath  string
	outPath string
}

type batchOutcome struct {
	rows int
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := context.Background()

	op, cfg, err := parseOperation()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(anonInput)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}
	if err := os.MkdirAll(anonOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	jobs := make([]batchJob, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		jobs = append(jobs, batchJob{
			inPath:  filepath.Join(anonInput, e.Name()),
			outPath: filepath.Join(anonOutput, e.Name()),
		})
	}
	if len(jobs) == 0 {
		log.Info("no CSV files found under %s", anonInput)
		return nil
	}

	poolCfg := parallel.DefaultPoolConfig().WithMetrics()
	if batchWorkers > 0 {
		poolCfg = poolCfg.WithWorkers(batchWorkers)
	}
	pool := parallel.NewWorkerPool[batchJob, batchOutcome](poolCfg)

	grid := hexgrid.New()
	results := pool.ExecuteFunc(ctx, jobs, func(ctx context.Context, job batchJob) (batchOutcome, error) {
		return anonymizeOneFile(ctx, grid, op, cfg, job, log)
	})

	var failures int
	for i, r := range results {
		if r.Error != nil {
			failures++
			log.Error("%s: %v", jobs[i].inPath, r.Error)
			continue
		}
		log.Info("%s -> %s (%d rows)", jobs[i].inPath, jobs[i].outPath, r.Result.rows)
	}

	metrics := pool.Metrics()
	log.Info("batch done: %d files, %d failed, wall %s", len(jobs), failures, metrics.TotalDuration)

	if failures > 0 {
		return fmt.Errorf("batch: %d of %d files failed", failures, len(jobs))
	}
	return nil
}

func anonymizeOneFile(ctx context.Context, grid hexgrid.Grid, op anon.Operation, cfg anon.Params, job batchJob, log utils.Logger) (batchOutcome, error) {
	f, err := os.Open(job.inPath)
	if err != nil {
		return batchOutcome{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	table, err := tableio.Read(f)
	if err != nil {
		return batchOutcome{}, fmt.Errorf("parse input: %w", err)
	}

	engine, err := op.Resolve(grid)
	if err != nil {
		return batchOutcome{}, err
	}
	if lg, ok := engine.(anon.Loggable); ok {
		lg.SetLogger(log)
	}
	run, err := engine.Apply(ctx, table, cfg)
	if err != nil {
		return batchOutcome{}, fmt.Errorf("anonymize: %w", err)
	}

	rewriter := anon.NewRowRewriter(grid)
	out := rewriter.Production(run, table)

	outFile, err := os.Create(job.outPath)
	if err != nil {
		return batchOutcome{}, fmt.Errorf("create output: %w", err)
	}
	defer outFile.Close()

	if err := tableio.Write(outFile, out); err != nil {
		return batchOutcome{}, fmt.Errorf("write output: %w", err)
	}
	return batchOutcome{rows: table.Len()}, nil
}
