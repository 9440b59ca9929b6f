// Package codegen derives runtime-facing descriptors from lowered IR.
//
// Three descriptors are produced:
//
//   - Catalog: one entry per IR operator, with a description and tags
//     derived from the operator type, the chosen implementation and the
//     execution target.
//   - NumericSpecs: the matrix or tensor-network data of each operator
//     that has any. Matrix shapes and the declared dense or sparse storage
//     are read from the source program, since the IR keeps only the data.
//   - JobDescriptor: the evolution job the runtime executes, referencing
//     catalog entries by name and carrying evolution parameters taken
//     from JobOptions.
//
// All are pure functions of their inputs except for the job id, which
// comes from an IDGenerator. Production code uses UUIDv7Generator; tests
// use a SequenceGenerator so descriptors are reproducible.
package codegen
