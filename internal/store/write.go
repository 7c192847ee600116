package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteRun inserts a run. Uses ON CONFLICT(id) DO NOTHING, so writing the
// same run twice is a no-op; reusing a seq for a different ID is an error.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	columns, err := marshalStrings(run.ValueColumns)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	findings, err := marshalStrings(run.Findings)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	params, err := marshalParams(run.Params)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, template_hash, rows_hash, row_count, value_columns, locale, params,
		 status, finding, findings, pre_parsed, error_code, error_message,
		 engine_version, template_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.TemplateHash,
		run.RowsHash,
		run.RowCount,
		columns,
		run.Locale,
		params,
		string(run.Status),
		nullString(run.Finding, run.HasFinding),
		findings,
		nullString(run.PreParsed, run.HasPreParsed),
		string(run.ErrorCode),
		run.ErrorMessage,
		run.EngineVersion,
		run.TemplateVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

func nullString(s string, ok bool) sql.NullString {
	return sql.NullString{String: s, Valid: ok}
}
