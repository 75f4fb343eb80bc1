package adapter

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

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// ErrScanNotFound is returned when a scan ID is not in the store.
var ErrScanNotFound = errors.New("scan not found")

// DefaultStorePath is the SQLite database holding scan history.
const DefaultStorePath = ".vulnsift.db"

// ResultStore persists completed scans for later retrieval.
type ResultStore interface {
	SaveScan(ctx context.Context, result m.ScanResult) error
	// ListScans returns the newest scans first; limit <= 0 means no limit.
	ListScans(ctx context.Context, limit int) ([]m.ScanRecord, error)
	GetScan(ctx context.Context, id string) (m.ScanResult, error)
	Close() error
}

// SQLiteResultStore is a ResultStore backed by mattn/go-sqlite3.
type SQLiteResultStore struct {
	db *sql.DB
}

const resultStoreSchema = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	project_path TEXT NOT NULL,
	mode TEXT NOT NULL,
	smell_score INTEGER NOT NULL,
	duration REAL NOT NULL,
	files_scanned INTEGER NOT NULL,
	stats TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	file_path TEXT NOT NULL,
	line_number INTEGER NOT NULL,
	column_number INTEGER NOT NULL,
	rule_id TEXT NOT NULL,
	vulnerability_type TEXT NOT NULL,
	severity TEXT NOT NULL,
	confidence TEXT NOT NULL,
	description TEXT NOT NULL,
	snippet TEXT,
	suggested_fix TEXT,
	fix_theory TEXT,
	origin TEXT
);

CREATE INDEX IF NOT EXISTS idx_issues_scan ON issues(scan_id);
CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);
`

// NewSQLiteResultStore opens (creating if needed) the database at path.
func NewSQLiteResultStore(path string) (*SQLiteResultStore, error) {
	if path == "" {
		path = DefaultStorePath
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if _, err := db.Exec(resultStoreSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	return &SQLiteResultStore{db: db}, nil
}

// SaveScan writes a scan and its issues in one transaction.
func (s *SQLiteResultStore) SaveScan(ctx context.Context, result m.ScanResult) error {
	stats, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO scans (id, started_at, project_path, mode, smell_score, duration, files_scanned, stats)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		string(result.Root),
		string(result.Mode),
		result.SmellScore,
		result.Stats.DurationSeconds,
		result.Stats.TotalFiles,
		string(stats),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE scan_id = ?`, result.ID); err != nil {
		return fmt.Errorf("reset issues: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO issues (scan_id, position, file_path, line_number, column_number, rule_id, vulnerability_type,
		severity, confidence, description, snippet, suggested_fix, fix_theory, origin)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare issue insert: %w", err)
	}

	defer func() { _ = stmt.Close() }()

	for i, issue := range result.Issues {
		_, err := stmt.ExecContext(ctx,
			result.ID, i, string(issue.FilePath), issue.LineNumber, issue.Column, issue.RuleID,
			issue.VulnerabilityType, string(issue.Severity), string(issue.Confidence), issue.Description,
			issue.Snippet, issue.SuggestedFix, issue.FixTheory, string(issue.Origin),
		)
		if err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan: %w", err)
	}

	return nil
}

// ListScans returns scan summaries, newest first.
func (s *SQLiteResultStore) ListScans(ctx context.Context, limit int) ([]m.ScanRecord, error) {
	query := `
	SELECT s.id, s.started_at, s.project_path, s.mode, s.smell_score, s.duration, s.files_scanned,
		(SELECT COUNT(*) FROM issues i WHERE i.scan_id = s.id)
	FROM scans s
	ORDER BY s.started_at DESC`

	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`

		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var records []m.ScanRecord

	for rows.Next() {
		var (
			record    m.ScanRecord
			startedAt string
			root      string
			mode      string
		)

		err := rows.Scan(&record.ID, &startedAt, &root, &mode, &record.SmellScore,
			&record.Duration, &record.FilesScanned, &record.IssueCount)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		record.Root = m.Path(root)
		record.Mode = m.ScanMode(mode)
		record.StartedAt = parseStoredTime(startedAt)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}

	return records, nil
}

// GetScan loads one scan with its issues in their original order.
func (s *SQLiteResultStore) GetScan(ctx context.Context, id string) (m.ScanResult, error) {
	var (
		result    m.ScanResult
		startedAt string
		root      string
		mode      string
		stats     string
	)

	err := s.db.QueryRowContext(ctx, `
	SELECT id, started_at, project_path, mode, smell_score, stats FROM scans WHERE id = ?`, id).
		Scan(&result.ID, &startedAt, &root, &mode, &result.SmellScore, &stats)
	if errors.Is(err, sql.ErrNoRows) {
		return m.ScanResult{}, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}

	if err != nil {
		return m.ScanResult{}, fmt.Errorf("query scan: %w", err)
	}

	result.Root = m.Path(root)
	result.Mode = m.ScanMode(mode)
	result.StartedAt = parseStoredTime(startedAt)

	if err := json.Unmarshal([]byte(stats), &result.Stats); err != nil {
		return m.ScanResult{}, fmt.Errorf("decode stats: %w", err)
	}

	issues, err := s.loadIssues(ctx, id)
	if err != nil {
		return m.ScanResult{}, err
	}

	result.Issues = issues

	return result, nil
}

func (s *SQLiteResultStore) loadIssues(ctx context.Context, scanID string) ([]m.IssueCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT file_path, line_number, column_number, rule_id, vulnerability_type, severity, confidence,
		description, COALESCE(snippet, ''), COALESCE(suggested_fix, ''), COALESCE(fix_theory, ''), COALESCE(origin, '')
	FROM issues WHERE scan_id = ? ORDER BY position`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}

	defer func() { _ = rows.Close() }()

	issues := []m.IssueCandidate{}

	for rows.Next() {
		var (
			issue                        m.IssueCandidate
			path, severity, conf, origin string
		)

		err := rows.Scan(&path, &issue.LineNumber, &issue.Column, &issue.RuleID, &issue.VulnerabilityType,
			&severity, &conf, &issue.Description, &issue.Snippet, &issue.SuggestedFix, &issue.FixTheory, &origin)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}

		issue.FilePath = m.Path(path)
		issue.Severity = m.ParseSeverityOr(severity, m.SeverityMedium)
		issue.Confidence = m.Confidence(conf)
		issue.Origin = m.Origin(origin)
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}

	return issues, nil
}

// Close releases the database handle.
func (s *SQLiteResultStore) Close() error {
	return s.db.Close()
}

func parseStoredTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}

	return t
}
