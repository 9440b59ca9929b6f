package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hpmdl/internal/ir"
)

// ErrNotFound is returned when no compilation matches a lookup.
var ErrNotFound = errors.New("compilation not found")

// Compilation is one registry entry.
type Compilation struct {
	ID              string
	Seq             int64
	SourcePath      string
	SourceHash      string
	IRHash          string
	EntryPoint      string
	OperatorCount   int
	JobID           string
	OutputDir       string
	CompilerVersion string
	IRVersion       string
	Artifacts       []Artifact
}

// Artifact is one file written by a compilation.
type Artifact struct {
	Name     string
	Format   string
	Size     int64
	Checksum string
}

// Record stores c and its artifacts. ID and Seq are assigned here; values
// set by the caller are ignored.
//
// If an entry with the same (SourceHash, IRHash) exists it is returned
// unchanged with created false.
func (s *Store) Record(ctx context.Context, c Compilation) (Compilation, bool, error) {
	if c.SourceHash == "" || c.IRHash == "" {
		return Compilation{}, false, errors.New("record compilation: source and IR hashes are required")
	}
	c.ID = ir.CompilationID(c.SourceHash, c.IRHash)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Compilation{}, false, fmt.Errorf("record compilation: %w", err)
	}
	defer tx.Rollback()

	existing, err := getCompilation(ctx, tx, c.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return Compilation{}, false, fmt.Errorf("record compilation: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM compilations`).Scan(&c.Seq); err != nil {
		return Compilation{}, false, fmt.Errorf("record compilation: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compilations
		(id, seq, source_path, source_hash, ir_hash, entry_point, operator_count, job_id, output_dir, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.Seq,
		c.SourcePath,
		c.SourceHash,
		c.IRHash,
		c.EntryPoint,
		c.OperatorCount,
		c.JobID,
		c.OutputDir,
		c.CompilerVersion,
		c.IRVersion,
	)
	if err != nil {
		return Compilation{}, false, fmt.Errorf("record compilation: %w", err)
	}

	for _, a := range c.Artifacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (compilation_id, name, format, size, checksum)
			VALUES (?, ?, ?, ?, ?)
		`, c.ID, a.Name, a.Format, a.Size, a.Checksum)
		if err != nil {
			return Compilation{}, false, fmt.Errorf("record artifact %s: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Compilation{}, false, fmt.Errorf("record compilation: commit: %w", err)
	}
	if c.Artifacts == nil {
		c.Artifacts = []Artifact{}
	}
	return c, true, nil
}

// Get returns the compilation with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Compilation, error) {
	return getCompilation(ctx, s.db, id)
}

// List returns compilations in sequence order. A non-empty sourcePath
// restricts the listing to that source. limit <= 0 means no limit; when
// set, the most recent limit entries are returned, still oldest first.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) List(ctx context.Context, sourcePath string, limit int) ([]Compilation, error) {
	query := `
		SELECT ` + compilationColumns + `
		FROM compilations
		WHERE (? = '' OR source_path = ?)
		ORDER BY seq DESC, id COLLATE BINARY DESC
	`
	args := []any{sourcePath, sourcePath}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	defer rows.Close()

	var out []Compilation
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	rows.Close()

	// Reverse to ascending seq.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	for i := range out {
		arts, err := readArtifacts(ctx, s.db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Artifacts = arts
	}
	if out == nil {
		out = []Compilation{}
	}
	return out, nil
}

// FindByIRHash returns every compilation that produced irHash, in
// sequence order.
func (s *Store) FindByIRHash(ctx context.Context, irHash string) ([]Compilation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+compilationColumns+`
		FROM compilations
		WHERE ir_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, irHash)
	if err != nil {
		return nil, fmt.Errorf("find compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

const compilationColumns = `id, seq, source_path, source_hash, ir_hash, entry_point, operator_count, job_id, output_dir, compiler_version, ir_version`

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(row scanner) (Compilation, error) {
	var c Compilation
	err := row.Scan(
		&c.ID,
		&c.Seq,
		&c.SourcePath,
		&c.SourceHash,
		&c.IRHash,
		&c.EntryPoint,
		&c.OperatorCount,
		&c.JobID,
		&c.OutputDir,
		&c.CompilerVersion,
		&c.IRVersion,
	)
	if err != nil {
		return Compilation{}, fmt.Errorf("scan compilation: %w", err)
	}
	return c, nil
}

func getCompilation(ctx context.Context, q querier, id string) (Compilation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+compilationColumns+` FROM compilations WHERE id = ?`, id)
	c, err := scanCompilation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Compilation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Compilation{}, err
	}
	c.Artifacts, err = readArtifacts(ctx, q, id)
	if err != nil {
		return Compilation{}, err
	}
	return c, nil
}

func readArtifacts(ctx context.Context, q querier, id string) ([]Artifact, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, format, size, checksum
		FROM artifacts
		WHERE compilation_id = ?
		ORDER BY name COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	out := []Artifact{}
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Name, &a.Format, &a.Size, &a.Checksum); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return out, nil
}
