package models

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// sniffReadLen is how many leading bytes are read for content sniffing. The
// binary signatures need only the first few bytes; the rest feeds the
// denial-phrase scan for textual bodies.
const sniffReadLen = 4096

// Signature is a known binary-format magic prefix.
type Signature struct {
	// Name labels the format, e.g. "onnx-protobuf".
	Name string `json:"name"`

	// Prefix is the leading byte sequence that identifies the format.
	Prefix []byte `json:"-"`
}

// SniffPolicy holds the signature and phrase sets used to distinguish genuine
// model payloads from access-denied pages served with a success status.
//
// The sets are policy, not assumptions: hubs differ in how they phrase a
// denial and which container formats they serve, so callers can extend or
// replace the defaults via a YAML policy file (see LoadSniffPolicy).
type SniffPolicy struct {
	// Signatures are binary magic prefixes that mark a payload genuine.
	// A signature match takes precedence over the phrase scan.
	Signatures []Signature

	// DenialPhrases are case-insensitive substrings whose presence in a
	// textual body marks the payload as an access-denied page.
	DenialPhrases []string

	// MinSizes maps each role to the minimum plausible artifact size in
	// bytes. Smaller artifacts are flagged in the verdict reason but
	// never rejected on size alone: format and compression vary.
	MinSizes map[Role]int64
}

// DefaultSniffPolicy returns the built-in policy. The signature set covers
// the portable-graph protobuf header, the zip header used by packed weight
// archives, and the legacy pickle header; the phrase set covers the denial
// wordings observed from gated hub repositories.
func DefaultSniffPolicy() SniffPolicy {
	return SniffPolicy{
		Signatures: []Signature{
			{Name: "onnx-protobuf", Prefix: []byte{0x08, 0x01, 0x12, 0x00}},
			{Name: "onnx-protobuf-v7", Prefix: []byte{0x08, 0x07, 0x12}},
			{Name: "zip-archive", Prefix: []byte{0x50, 0x4B, 0x03, 0x04}},
			{Name: "pickle", Prefix: []byte{0x80, 0x02}},
		},
		DenialPhrases: []string{
			"access to model",
			"access restricted",
			"is restricted",
			"invalid username or password",
			"gated repo",
			"<html",
			"<!doctype",
		},
		MinSizes: map[Role]int64{
			RoleSegmentation: 5 * 1024 * 1024,
			RoleEmbedding:    15 * 1024 * 1024,
		},
	}
}

// Check sniffs the leading bytes of a fetched artifact. It is deterministic
// and a pure function of its inputs: the same prefix always yields the same
// verdict regardless of where the file came from.
func (p SniffPolicy) Check(data []byte, size int64, role Role) ValidityVerdict {
	sizeNote := p.sizeAdvisory(size, role)

	for _, sig := range p.Signatures {
		if len(sig.Prefix) > 0 && bytes.HasPrefix(data, sig.Prefix) {
			return ValidityVerdict{Genuine: true, Reason: sizeNote}
		}
	}

	// Not a recognized binary format: scan the chunk as text, tolerant of
	// invalid encoding, for known denial wordings.
	text := strings.ToLower(strings.ToValidUTF8(string(data), ""))
	for _, phrase := range p.DenialPhrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return ValidityVerdict{
				Genuine: false,
				Reason:  fmt.Sprintf("looks like an access-denied page (matched %q)", phrase),
			}
		}
	}

	// Unrecognized but not a known denial page. Formats vary across hubs,
	// so an unknown prefix is accepted; the size advisory still applies.
	reason := "unrecognized leading bytes"
	if sizeNote != "" {
		reason += "; " + sizeNote
	}
	return ValidityVerdict{Genuine: true, Reason: reason}
}

// sizeAdvisory returns a note when the artifact is smaller than the minimum
// plausible size for its role, or empty otherwise.
func (p SniffPolicy) sizeAdvisory(size int64, role Role) string {
	min, ok := p.MinSizes[role]
	if !ok || size >= min {
		return ""
	}
	return fmt.Sprintf("size %s below expected minimum %s for %s", formatSize(size), formatSize(min), role)
}

// sniffFile reads the leading bytes of path and checks them against the
// policy.
func (p SniffPolicy) sniffFile(path string, role Role) (ValidityVerdict, error) {
	f, err := os.Open(path)
	if err != nil {
		return ValidityVerdict{}, fmt.Errorf("%w: opening artifact: %v", ErrStorage, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ValidityVerdict{}, fmt.Errorf("%w: stat artifact: %v", ErrStorage, err)
	}

	buf := make([]byte, sniffReadLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ValidityVerdict{}, fmt.Errorf("%w: reading artifact prefix: %v", ErrStorage, err)
	}

	return p.Check(buf[:n], info.Size(), role), nil
}
