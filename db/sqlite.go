package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"predictdemo/workflow"
)

const DefaultRecentLimit = 50

// RunRecord 预测运行记录
type RunRecord struct {
	ID         string         `json:"id"`
	Variant    string         `json:"variant"`
	Algorithm  string         `json:"algorithm"`
	ModelPath  string         `json:"model_path"`
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	Rows       int            `json:"rows"`
	Counts     map[string]int `json:"counts"`
	Other      int            `json:"other"`
	DurationMS int64          `json:"duration_ms"`
	At         time.Time      `json:"at"`
}

// RecordFromEvent converts a workflow run event into a journal record.
func RecordFromEvent(e workflow.RunEvent) RunRecord {
	counts := make(map[string]int, len(e.Counts.Classes))
	for _, c := range e.Counts.Classes {
		counts[c.Label] = c.Count
	}
	return RunRecord{
		ID:         e.ID,
		Variant:    e.Variant,
		Algorithm:  string(e.Algorithm),
		ModelPath:  e.ModelPath,
		Status:     e.Status,
		Message:    e.Message,
		Rows:       e.Rows,
		Counts:     counts,
		Other:      e.Counts.Other,
		DurationMS: e.Duration.Milliseconds(),
		At:         e.At.UTC(),
	}
}

// History 运行日志存储
type History struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open 打开或创建SQLite运行日志
func Open(path string, logger *zap.Logger) (*History, error) {
	if path == "" {
		return nil, errors.New("history path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir failed: %w", err)
	}

	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	database.SetMaxOpenConns(4)
	database.SetConnMaxLifetime(time.Hour)

	query := `
    CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        variant TEXT NOT NULL,
        algorithm TEXT NOT NULL,
        model_path TEXT,
        status TEXT NOT NULL,
        message TEXT,
        row_count INTEGER DEFAULT 0,
        counts TEXT,
        other INTEGER DEFAULT 0,
        duration_ms INTEGER DEFAULT 0,
        run_at DATETIME NOT NULL,
        UNIQUE(run_id)
    );
    CREATE INDEX IF NOT EXISTS idx_runs_run_at ON runs(run_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return &History{db: database, logger: logger}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Save 保存一次运行记录
func (h *History) Save(ctx context.Context, r RunRecord) error {
	counts, err := json.Marshal(r.Counts)
	if err != nil {
		return err
	}
	_, err = h.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO runs (
            run_id, variant, algorithm, model_path, status, message,
            row_count, counts, other, duration_ms, run_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Variant, r.Algorithm, r.ModelPath, r.Status, r.Message,
		r.Rows, string(counts), r.Other, r.DurationMS, r.At,
	)
	return err
}

// Recent 返回最近的运行记录，最新的在前
func (h *History) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := h.db.QueryContext(ctx, `
        SELECT run_id, variant, algorithm, model_path, status, message,
               row_count, counts, other, duration_ms, run_at
        FROM runs
        ORDER BY run_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		var modelPath, message, counts sql.NullString
		if err := rows.Scan(&r.ID, &r.Variant, &r.Algorithm, &modelPath, &r.Status, &message,
			&r.Rows, &counts, &r.Other, &r.DurationMS, &r.At); err != nil {
			return nil, err
		}
		r.ModelPath = modelPath.String
		r.Message = message.String
		if counts.Valid && counts.String != "" {
			if err := json.Unmarshal([]byte(counts.String), &r.Counts); err != nil {
				return nil, err
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ObserveRun 实现 workflow.Observer，写入失败只记录日志
func (h *History) ObserveRun(e workflow.RunEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Save(ctx, RecordFromEvent(e)); err != nil {
		h.logger.Warn("failed to journal run", zap.String("run_id", e.ID), zap.Error(err))
	}
}
