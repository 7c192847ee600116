package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/narrate/internal/engine"
)

// ErrRunNotFound is returned by ReadRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, template_hash, rows_hash, row_count, value_columns, locale, params,
	status, finding, findings, pre_parsed, error_code, error_message,
	engine_version, template_version`

// RunFilter narrows ListRuns. Zero fields do not filter.
type RunFilter struct {
	TemplateHash string
	Status       Status
	Limit        int
}

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns matching runs ordered by seq ASC, id ASC COLLATE BINARY.
// With a Limit, the most recent Limit runs are returned, still in
// ascending order. Returns an empty slice, not nil, when nothing matches.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	var (
		where []string
		args  []any
	)
	if f.TemplateHash != "" {
		where = append(where, "template_hash = ?")
		args = append(args, f.TemplateHash)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?)`
		args = append(args, f.Limit)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestSeq returns the highest seq in the log, or 0 when it is empty.
func (s *Store) LatestSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                       Run
		columns, params, findings string
		status, code              string
		finding, preParsed        sql.NullString
	)
	err := sc.Scan(
		&run.ID, &run.Seq, &run.TemplateHash, &run.RowsHash, &run.RowCount,
		&columns, &run.Locale, &params,
		&status, &finding, &findings, &preParsed, &code, &run.ErrorMessage,
		&run.EngineVersion, &run.TemplateVersion,
	)
	if err != nil {
		return Run{}, err
	}

	run.Status = Status(status)
	run.ErrorCode = engine.Code(code)
	run.Finding, run.HasFinding = finding.String, finding.Valid
	run.PreParsed, run.HasPreParsed = preParsed.String, preParsed.Valid

	if run.ValueColumns, err = unmarshalStrings(columns); err != nil {
		return Run{}, err
	}
	if run.Findings, err = unmarshalStrings(findings); err != nil {
		return Run{}, err
	}
	if run.Params, err = unmarshalParams(params); err != nil {
		return Run{}, err
	}
	return run, nil
}
