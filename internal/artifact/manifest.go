package artifact

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Artifact file names inside an output directory.
const (
	IRFile          = "ir.json"
	CatalogFile     = "catalog.json"
	CatalogCBORFile = "catalog.cbor"
	NumericFile     = "numeric.cbor"
	JobFile         = "job.json"
	ReportFile      = "report.json"
	ManifestFile    = "manifest.json"
)

// Format is the encoding of an artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ChecksumPrefix names the checksum algorithm in Manifest.Checksums.
const ChecksumPrefix = "blake2b:"

// Manifest describes one compilation's artifacts.
type Manifest struct {
	IRVersion       string            `json:"ir_version"`
	CompilerVersion string            `json:"compiler_version"`
	IRHash          string            `json:"ir_hash"`
	SourceHash      string            `json:"source_hash,omitempty"`
	Source          string            `json:"source,omitempty"`
	Artifacts       []Entry           `json:"artifacts"`
	Checksums       map[string]string `json:"checksums"`
}

// Entry is one artifact. Path is relative to the output directory.
type Entry struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Format   Format   `json:"format"`
	Size     int64    `json:"size"`
	Metadata Metadata `json:"metadata"`
}

// Metadata records when and by what an artifact was produced.
type Metadata struct {
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
}

// Checksum returns the manifest checksum of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return ChecksumPrefix + hex.EncodeToString(sum[:])
}

// Lookup returns the entry with the given name.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	for _, e := range m.Artifacts {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Verify reports the name of the first artifact whose data does not match
// its recorded checksum. read is called with each entry's Path.
func (m *Manifest) Verify(read func(path string) ([]byte, error)) (string, error) {
	for _, e := range m.Artifacts {
		data, err := read(e.Path)
		if err != nil {
			return e.Name, err
		}
		if Checksum(data) != m.Checksums[e.Name] {
			return e.Name, nil
		}
	}
	return "", nil
}
