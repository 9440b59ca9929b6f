package testutil

// FixedIDGenerator generates the same job id every time.
//
// The same scenario compiled with the same FixedIDGenerator produces
// byte-identical job descriptors.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// DefaultJobID is used when NewFixedIDGenerator is given an empty id.
const DefaultJobID = "test-job-default"

// NewFixedIDGenerator creates a generator that always returns id.
//
// The id is typically set in the scenario YAML:
//
//	job_id: "test-job-00000000-0000-0000-0000-000000000001"
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = DefaultJobID
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id. Implements codegen.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
