// Package artifact writes the files a compilation produces and the
// manifest that describes them.
//
// Every artifact is encoded and validated in memory before anything is
// written, so a failed compilation leaves no partial output:
//
//   - ir.json is checked against the CUE definition #Program
//   - job.json is checked against a JSON Schema
//   - catalog.cbor uses canonical CBOR so equal catalogs are byte-identical
//   - numeric.cbor holds matrix and tensor-network data, also canonical
//
// manifest.json lists every other artifact with its format, size and a
// blake2b-256 checksum. S3Publisher copies a written bundle to S3 or an
// S3-compatible store.
package artifact
