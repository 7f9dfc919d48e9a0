package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	_ "modernc.org/sqlite"

	"navpulse/internal/config"
	"navpulse/internal/dataprocessing"
	"navpulse/internal/derived"
	apperrors "navpulse/internal/errors"
	"navpulse/internal/infrastructure"
	"navpulse/internal/series"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Run is one row of the runs table
type Run struct {
	ID        string
	Job       string
	Source    string
	Table     string
	Rows      int
	CreatedAt time.Time
}

// Store persists derived frames in a SQLite file
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path
func Open(path string, logger *slog.Logger) (*Store, error) {
	logger = infrastructure.WithComponent(logger, "store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create database directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to ping database", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT NOT NULL,
			job TEXT NOT NULL,
			source TEXT NOT NULL,
			table_name TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to create runs table", err)
	}

	logger.Debug("sqlite store opened", slog.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// TableName derives a table name from a source file,
// e.g. "data/Industrivarden_vanlig2_preprocess.csv" -> "industrivarden_vanlig2_preprocess".
func TableName(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || !identRe.MatchString(name) {
		name = "t_" + name
	}
	return name
}

func quote(ident string) string { return `"` + ident + `"` }

// SaveFrame replaces table with the contents of f. Missing values are stored as NULL.
func (s *Store) SaveFrame(ctx context.Context, table string, f *derived.Frame) error {
	if !identRe.MatchString(table) {
		return apperrors.NewInvalidParameterError("table", table)
	}
	cols := f.Columns()
	for _, c := range cols {
		if !identRe.MatchString(c) {
			return apperrors.NewInvalidParameterError("column", c)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	defs := []string{quote(dataprocessing.ColDate) + " TEXT"}
	names := []string{quote(dataprocessing.ColDate)}
	for _, c := range cols {
		defs = append(defs, quote(c)+" REAL")
		names = append(names, quote(c))
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table)); err != nil {
		return apperrors.NewStorageError("failed to drop table "+table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", "))); err != nil {
		return apperrors.NewStorageError("failed to create table "+table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(names, ", "), placeholders))
	if err != nil {
		return apperrors.NewStorageError("failed to prepare insert", err)
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for i := 0; i < f.Len(); i++ {
		args[0] = nil
		if d := f.Dates[i]; !d.IsZero() {
			args[0] = d.Format(config.DateLayout)
		}
		for j, c := range cols {
			v, _ := f.Column(c)
			if series.IsMissing(v[i]) {
				args[j+1] = nil
			} else {
				args[j+1] = v[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to insert row %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit", err)
	}

	s.logger.InfoContext(ctx, "frame stored",
		slog.String("table", table),
		slog.Int("rows", f.Len()),
		slog.Int("columns", len(cols)))
	return nil
}

// LoadFrame reads a table written by SaveFrame
func (s *Store) LoadFrame(ctx context.Context, table string) (*derived.Frame, error) {
	if !identRe.MatchString(table) {
		return nil, apperrors.NewInvalidParameterError("table", table)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quote(table))
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, apperrors.NewNotFoundError("table " + table)
		}
		return nil, apperrors.NewStorageError("failed to query "+table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read columns", err)
	}
	if len(cols) == 0 || cols[0] != dataprocessing.ColDate {
		return nil, apperrors.NewMissingColumnError(table, dataprocessing.ColDate)
	}

	var dates []time.Time
	values := make([]series.Series, len(cols)-1)
	date := new(sql.NullString)
	nums := make([]sql.NullFloat64, len(cols)-1)
	dest := make([]any, len(cols))
	dest[0] = date
	for i := range nums {
		dest[i+1] = &nums[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.NewStorageError("failed to scan row", err)
		}
		var d time.Time
		if date.Valid {
			d, _ = dataprocessing.ParseDate(date.String)
		}
		dates = append(dates, d)
		for i, n := range nums {
			if n.Valid {
				values[i] = append(values[i], n.Float64)
			} else {
				values[i] = append(values[i], series.Missing())
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("error iterating rows", err)
	}

	f := derived.NewFrame(table, dates)
	for i, name := range cols[1:] {
		v := values[i]
		if v == nil {
			v = series.Series{}
		}
		if err := f.Set(name, v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// RecordRun appends a row to the runs table
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, job, source, table_name, row_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Job, r.Source, r.Table, r.Rows, r.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return apperrors.NewStorageError("failed to record run", err)
	}
	return nil
}

// Runs lists recorded runs, oldest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job, source, table_name, row_count, created_at FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Job, &r.Source, &r.Table, &r.Rows, &created); err != nil {
			return nil, apperrors.NewStorageError("failed to scan run", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("error iterating runs", err)
	}
	return runs, nil
}
