package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/queryir"
	"github.com/gradient-ai/jax-gradient/internal/querysql"
)

// ReadProgram retrieves a program by ID. If the program is stored under
// several names, the earliest record wins.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadProgram(ctx context.Context, id string) (ir.ProgramRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, body, ir_version, seq
		FROM programs
		WHERE id = ?
		ORDER BY seq ASC, name COLLATE BINARY ASC
		LIMIT 1
	`, id)
	return scanProgramRow(row)
}

// ReadProgramByName retrieves the most recently written program with the
// given name.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadProgramByName(ctx context.Context, name string) (ir.ProgramRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, body, ir_version, seq
		FROM programs
		WHERE name = ?
		ORDER BY seq DESC, id COLLATE BINARY ASC
		LIMIT 1
	`, name)
	return scanProgramRow(row)
}

// ReadAllPrograms returns every program record with deterministic ordering.
// Returns an empty slice (not nil) if the store holds no programs.
func (s *Store) ReadAllPrograms(ctx context.Context) ([]ir.ProgramRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, body, ir_version, seq
		FROM programs
		ORDER BY seq ASC, id COLLATE BINARY ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	var records []ir.ProgramRecord
	for rows.Next() {
		rec, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}

	if records == nil {
		records = []ir.ProgramRecord{}
	}
	return records, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_token, program_id, direction, inputs, consts, outputs, error_code, seq
		FROM runs
		WHERE id = ?
	`, id)
	return scanRunRow(row)
}

// ReadRuns returns the runs of one program, or of every program when
// programID is empty, ordered by seq.
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ReadRuns(ctx context.Context, programID string) ([]ir.Run, error) {
	q := queryir.Query{}
	if programID != "" {
		q = queryir.Where(queryir.ForProgram(programID))
	}
	return s.QueryRuns(ctx, q)
}

// QueryRuns returns the runs matching q, ordered by seq.
// Returns an empty slice (not nil) if no runs match.
func (s *Store) QueryRuns(ctx context.Context, q queryir.Query) ([]ir.Run, error) {
	query, args, err := querysql.Compile(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ir.Run
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

	if runs == nil {
		runs = []ir.Run{}
	}
	return runs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProgram(rows *sql.Rows) (ir.ProgramRecord, error) {
	rec, err := scanProgramFrom(rows)
	if err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("scan program: %w", err)
	}
	return rec, nil
}

// scanProgramRow returns sql.ErrNoRows unwrapped so callers can compare it.
func scanProgramRow(row *sql.Row) (ir.ProgramRecord, error) {
	return scanProgramFrom(row)
}

func scanProgramFrom(sc scanner) (ir.ProgramRecord, error) {
	var rec ir.ProgramRecord
	var body string
	if err := sc.Scan(&rec.ID, &rec.Name, &body, &rec.IRVersion, &rec.Seq); err != nil {
		return ir.ProgramRecord{}, err
	}
	p, err := unmarshalProgram(body)
	if err != nil {
		return ir.ProgramRecord{}, err
	}
	rec.Program = p
	return rec, nil
}

func scanRun(rows *sql.Rows) (ir.Run, error) {
	run, err := scanRunFrom(rows)
	if err != nil {
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

func scanRunRow(row *sql.Row) (ir.Run, error) {
	return scanRunFrom(row)
}

func scanRunFrom(sc scanner) (ir.Run, error) {
	var run ir.Run
	var direction, inputs, consts, outputs string
	err := sc.Scan(
		&run.ID,
		&run.RunToken,
		&run.ProgramID,
		&direction,
		&inputs,
		&consts,
		&outputs,
		&run.ErrorCode,
		&run.Seq,
	)
	if err != nil {
		return ir.Run{}, err
	}
	run.Direction = ir.Direction(direction)

	if run.Inputs, err = unmarshalFloats(inputs); err != nil {
		return ir.Run{}, err
	}
	if run.Consts, err = unmarshalBindings(consts); err != nil {
		return ir.Run{}, err
	}
	if run.Outputs, err = unmarshalFloats(outputs); err != nil {
		return ir.Run{}, err
	}
	return run, nil
}
