// Package ir defines the backend-resolved intermediate representation of an
// HPM-DL program.
//
// The IR is the hand-off unit to catalog and job generation and to the
// runtime. It is produced by package lower and never mutated afterwards.
//
// Key design constraints:
//   - Every operator carries exactly one Implementation variant
//   - All JSON tags on records use snake_case; variant and enum names are
//     PascalCase, e.g. {"DenseMatrix": {"data": [...]}}
//   - Lists marshal as [] rather than null so the JSON round-trips
//     losslessly through encoding/json
//   - No wall-clock data, so identical source yields identical bytes
package ir
