// Package audit records one row per anonymization run: the variant and
// working point used, how many input rows it covered, and the outcome.
// It is a single-dialect narrowing of the teacher's multi-database
// repository layer — an anonymization audit log has no multi-tenant
// database-choice requirement, so only sqlite (the teacher's own test
// dialect) made the cut.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/perf-analysis/internal/anon"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run is one row of the audit log.
type Run struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Mode       string    `gorm:"column:mode;type:varchar(16);index"`
	K          int       `gorm:"column:k"`
	MinP       int       `gorm:"column:min_p"`
	MaxP       int       `gorm:"column:max_p"`
	RowCount   int       `gorm:"column:row_count"`
	FinalP     int       `gorm:"column:final_p"`
	DotLevel   bool      `gorm:"column:dot_level"`
	Err        string    `gorm:"column:error;type:text"`
	StartedAt  time.Time `gorm:"column:started_at;autoCreateTime"`
	FinishedAt time.Time `gorm:"column:finished_at"`
}

// TableName pins the table name independent of struct renames.
func (Run) TableName() string { return "anonymization_run" }

// Config points at the sqlite file backing the audit log. An empty Path
// opens an in-memory database, matching the teacher's own test helper.
type Config struct {
	Path string `mapstructure:"path"`
}

// Open connects to (and migrates) the audit database.
func Open(cfg Config) (*gorm.DB, error) {
	dsn := cfg.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return db, nil
}

// Repository records and retrieves Run entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository wraps an already-open, already-migrated db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts one completed (or failed) run. runErr, if non-nil, is
// stored as text and the row is still written — an audit log that drops
// failed runs would understate how often anonymization couldn't proceed.
func (r *Repository) Record(ctx context.Context, mode string, cfg anon.Params, rowCount, finalP int, dotLevel bool, runErr error) error {
	row := Run{
		Mode:       mode,
		K:          cfg.K,
		MinP:       cfg.MinP,
		MaxP:       cfg.MaxP,
		RowCount:   rowCount,
		FinalP:     finalP,
		DotLevel:   dotLevel,
		FinishedAt: timeNow(),
	}
	if runErr != nil {
		row.Err = runErr.Error()
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// Recent returns the most recent n runs, newest first.
func (r *Repository) Recent(ctx context.Context, n int) ([]Run, error) {
	var runs []Run
	err := r.db.WithContext(ctx).Order("id desc").Limit(n).Find(&runs).Error
	return runs, err
}

// timeNow is a seam so tests can stub the clock without reaching for
// Date.Now-style globals inside the hot path.
var timeNow = time.Now
