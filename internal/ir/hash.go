package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "jaxinv/program/v1"
	DomainRun     = "jaxinv/run/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramID computes the content-addressed ID of a program.
// The ID is stable across processes given the same structure.
func ProgramID(p *Program) (string, error) {
	canonical, err := MarshalCanonical(p.Canonical())
	if err != nil {
		return "", fmt.Errorf("ProgramID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// RunID computes the content-addressed ID of an evaluation run.
// Inputs and const overrides are hashed in their decimal form, so runs on
// non-finite values still get an ID.
func RunID(runToken, programID string, direction Direction, inputs []float64, consts Bindings, seq int64) (string, error) {
	ins := make([]string, len(inputs))
	for i, v := range inputs {
		ins[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	overrides := make(map[string]any, len(consts))
	for name, v := range consts {
		overrides[name] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	obj := map[string]any{
		"run_token":  runToken,
		"program_id": programID,
		"direction":  string(direction),
		"inputs":     ins,
		"consts":     overrides,
		"seq":        seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustProgramID is like ProgramID but panics on error.
// Use only in tests or when the program is known to hold finite literals.
func MustProgramID(p *Program) string {
	id, err := ProgramID(p)
	if err != nil {
		panic(err)
	}
	return id
}
