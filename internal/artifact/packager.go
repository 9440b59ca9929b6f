package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/roach88/hpmdl/internal/codegen"
	"github.com/roach88/hpmdl/internal/ir"
	"github.com/roach88/hpmdl/internal/safety"
)

// Bundle is everything one compilation may write. Nil parts are skipped;
// IR is required.
type Bundle struct {
	Source     string
	SourceHash string
	IR         *ir.Program
	Catalog    *codegen.Catalog
	CBOR       bool
	Numeric    *codegen.NumericSpecs
	Job        *codegen.JobDescriptor
	Report     *safety.Report
}

// Packager encodes, validates and writes bundles.
type Packager struct {
	logger  *slog.Logger
	schemas *Schemas
	cbor    cbor.EncMode
	now     func() time.Time
}

// NewPackager compiles the artifact schemas and returns a packager that
// logs to logger, or slog.Default when logger is nil.
func NewPackager(logger *slog.Logger) (*Packager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schemas, err := LoadSchemas()
	if err != nil {
		return nil, err
	}
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	return &Packager{logger: logger, schemas: schemas, cbor: enc, now: time.Now}, nil
}

// WithClock returns a copy of p that stamps artifacts with now().
func (p *Packager) WithClock(now func() time.Time) *Packager {
	c := *p
	c.now = now
	return &c
}

type encoded struct {
	name string
	fmt  Format
	desc string
	data []byte
}

// encode encodes and validates every part of b without touching the disk.
func (p *Packager) encode(b Bundle) ([]encoded, error) {
	if b.IR == nil {
		return nil, fmt.Errorf("bundle has no IR")
	}

	var out []encoded
	add := func(name string, f Format, desc string, v any) error {
		var data []byte
		var err error
		if f == FormatCBOR {
			data, err = p.cbor.Marshal(v)
		} else {
			data, err = json.MarshalIndent(v, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		out = append(out, encoded{name: name, fmt: f, desc: desc, data: data})
		return nil
	}

	if err := add(IRFile, FormatJSON, "lowered program", b.IR); err != nil {
		return nil, err
	}
	if err := p.schemas.ValidateIR(out[0].data); err != nil {
		return nil, err
	}

	if b.Catalog != nil {
		if err := add(CatalogFile, FormatJSON, "operator catalog", b.Catalog); err != nil {
			return nil, err
		}
		if b.CBOR {
			if err := add(CatalogCBORFile, FormatCBOR, "operator catalog", b.Catalog); err != nil {
				return nil, err
			}
		}
	}
	if b.Numeric != nil {
		if err := add(NumericFile, FormatCBOR, "operator numeric specs", b.Numeric); err != nil {
			return nil, err
		}
	}
	if b.Job != nil {
		if err := add(JobFile, FormatJSON, "evolution job descriptor", b.Job); err != nil {
			return nil, err
		}
		if err := p.schemas.ValidateJob(out[len(out)-1].data); err != nil {
			return nil, err
		}
	}
	if b.Report != nil {
		if err := add(ReportFile, FormatJSON, "safety report", b.Report); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Check encodes and validates b without writing anything.
func (p *Packager) Check(b Bundle) error {
	_, err := p.encode(b)
	return err
}

// Write encodes b and writes it with its manifest into dir.
func (p *Packager) Write(dir string, b Bundle) (*Manifest, error) {
	files, err := p.encode(b)
	if err != nil {
		return nil, err
	}
	irHash, err := ir.ProgramHash(b.IR)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	created := p.now().UTC()
	m := &Manifest{
		IRVersion:       ir.IRVersion,
		CompilerVersion: ir.CompilerVersion,
		IRHash:          irHash,
		SourceHash:      b.SourceHash,
		Source:          b.Source,
		Artifacts:       make([]Entry, 0, len(files)),
		Checksums:       make(map[string]string, len(files)),
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.data); err != nil {
			return nil, err
		}
		m.Artifacts = append(m.Artifacts, Entry{
			Name:   f.name,
			Path:   f.name,
			Format: f.fmt,
			Size:   int64(len(f.data)),
			Metadata: Metadata{
				CreatedAt:   created,
				Version:     ir.CompilerVersion,
				Description: f.desc,
			},
		})
		m.Checksums[f.name] = Checksum(f.data)
		p.logger.Debug("wrote artifact",
			slog.String("name", f.name),
			slog.Int("size", len(f.data)))
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := writeFile(filepath.Join(dir, ManifestFile), data); err != nil {
		return nil, err
	}
	p.logger.Info("artifacts written",
		slog.String("dir", dir),
		slog.Int("count", len(files)),
		slog.String("ir_hash", irHash))
	return m, nil
}

// ReadManifest loads dir/manifest.json.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// writeFile replaces path atomically so readers never see a torn artifact.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
