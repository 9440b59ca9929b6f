package artifact

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/ir.cue
var irSchemaSource []byte

//go:embed schema/job.schema.json
var jobSchemaSource []byte

const jobSchemaURL = "schema://job.schema.json"

// SchemaError reports an artifact that does not match its schema.
type SchemaError struct {
	Artifact string
	Detail   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match its schema: %s", e.Artifact, e.Detail)
}

// Schemas holds the compiled artifact schemas.
type Schemas struct {
	ctx     *cue.Context
	program cue.Value
	job     *jsonschema.Schema
}

// LoadSchemas compiles the embedded schemas.
func LoadSchemas() (*Schemas, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(irSchemaSource, cue.Filename("ir.cue"))
	if v.Err() != nil {
		return nil, fmt.Errorf("failed to compile IR schema: %w", v.Err())
	}
	program := v.LookupPath(cue.ParsePath("#Program"))
	if !program.Exists() {
		return nil, fmt.Errorf("IR schema has no #Program definition")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(jobSchemaURL, bytes.NewReader(jobSchemaSource)); err != nil {
		return nil, fmt.Errorf("failed to add job schema: %w", err)
	}
	job, err := compiler.Compile(jobSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile job schema: %w", err)
	}

	return &Schemas{ctx: ctx, program: program, job: job}, nil
}

// ValidateIR checks encoded IR against #Program.
func (s *Schemas) ValidateIR(data []byte) error {
	v := s.ctx.CompileBytes(data, cue.Filename(IRFile))
	if v.Err() != nil {
		return &SchemaError{Artifact: IRFile, Detail: v.Err().Error()}
	}
	if err := s.program.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return &SchemaError{Artifact: IRFile, Detail: cueDetail(err)}
	}
	return nil
}

// ValidateJob checks an encoded job descriptor against the job schema.
func (s *Schemas) ValidateJob(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &SchemaError{Artifact: JobFile, Detail: err.Error()}
	}
	if err := s.job.Validate(doc); err != nil {
		return &SchemaError{Artifact: JobFile, Detail: err.Error()}
	}
	return nil
}

// cueDetail flattens a CUE error list into one line per problem.
func cueDetail(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	var b bytes.Buffer
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
