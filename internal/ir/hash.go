package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram     = "hpmdl/ir/v1"
	DomainSource      = "hpmdl/source/v1"
	DomainCompilation = "hpmdl/compilation/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash identifies a lowered program by content. Struct fields
// marshal in declaration order, so equal programs hash equally.
func ProgramHash(p *Program) (string, error) {
	if p == nil {
		return "", fmt.Errorf("ProgramHash: nil program")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, data), nil
}

// SourceHash identifies source text. Callers should hash the text after
// NFC normalisation so equivalent spellings share a hash.
func SourceHash(src string) string {
	return hashWithDomain(DomainSource, []byte(src))
}

// CompilationID identifies one compilation: a source hash paired with the
// program hash it lowered to.
func CompilationID(sourceHash, programHash string) string {
	return hashWithDomain(DomainCompilation, []byte(sourceHash+"\x00"+programHash))
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when the program is known to be valid.
func MustProgramHash(p *Program) string {
	h, err := ProgramHash(p)
	if err != nil {
		panic(err)
	}
	return h
}
