package store

import (
	"context"
	"fmt"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// WriteProgram inserts a program record into the store.
// Uses ON CONFLICT(id, name) DO NOTHING for idempotency: writing the same
// program under the same name again keeps the first record and its seq.
func (s *Store) WriteProgram(ctx context.Context, rec ir.ProgramRecord) error {
	body, err := marshalProgram(rec.Program)
	if err != nil {
		return fmt.Errorf("write program: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO programs (id, name, body, ir_version, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id, name) DO NOTHING
	`,
		rec.ID,
		rec.Name,
		body,
		rec.IRVersion,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("write program: %w", err)
	}
	return nil
}

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	inputs, err := marshalFloats(run.Inputs)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	outputs, err := marshalFloats(run.Outputs)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	consts, err := marshalBindings(run.Consts)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, run_token, program_id, direction, inputs, consts, outputs, error_code, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.RunToken,
		run.ProgramID,
		string(run.Direction),
		inputs,
		consts,
		outputs,
		run.ErrorCode,
		run.Seq,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}
