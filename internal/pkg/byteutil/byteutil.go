// Package byteutil provides the primitive byte-slice operations the PTMF
// decoding pipeline is built on: subrange extraction, concatenation,
// delimiter splitting, hex conversion and fixed-width integer codecs.
//
// PTMF frame headers store their fields big-endian (except transport ports,
// which are little-endian), while the PCAP container mandates little-endian,
// so every numeric codec takes an explicit endianness.
package byteutil

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Subrange returns a copy of length bytes of b starting at start.
// It fails instead of panicking when the range falls outside the buffer,
// since offsets come straight from untrusted trace files.
func Subrange(b []byte, start, length int) ([]byte, error) {
	if start < 0 || length < 0 || start+length > len(b) {
		return nil, fmt.Errorf("subrange [%d:%d) out of bounds for %d byte buffer", start, start+length, len(b))
	}
	out := make([]byte, length)
	copy(out, b[start:start+length])
	return out, nil
}

// Concat returns the ordered concatenation of the given slices.
func Concat(slices ...[]byte) []byte {
	var total int
	for _, s := range slices {
		total += len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}

// MatchPattern reports whether b contains pattern exactly at offset.
func MatchPattern(b []byte, offset int, pattern []byte) bool {
	if offset < 0 || len(b)-offset < len(pattern) {
		return false
	}
	for i := range pattern {
		if b[offset+i] != pattern[i] {
			return false
		}
	}
	return true
}

// Indices returns the start offsets of all non-overlapping occurrences of
// sep in b, scanning left to right.
func Indices(b, sep []byte) []int {
	if len(sep) == 0 {
		return nil
	}
	var idx []int
	for i := 0; i+len(sep) <= len(b); {
		if MatchPattern(b, i, sep) {
			idx = append(idx, i)
			i += len(sep)
			continue
		}
		i++
	}
	return idx
}

// Split returns the slices of b between non-overlapping occurrences of sep.
// A leading slice before the first match and a trailing slice after the
// last match are included only when non-empty. When sep does not occur at
// all, the result is a single slice holding all of b.
func Split(b, sep []byte) [][]byte {
	idx := Indices(b, sep)
	if len(idx) == 0 {
		return [][]byte{b}
	}
	var out [][]byte
	if idx[0] > 0 {
		out = append(out, b[:idx[0]])
	}
	for i := 0; i < len(idx)-1; i++ {
		out = append(out, b[idx[i]+len(sep):idx[i+1]])
	}
	if tail := b[idx[len(idx)-1]+len(sep):]; len(tail) > 0 {
		out = append(out, tail)
	}
	return out
}

// IntToBytes encodes v into width bytes (1..8) with the requested
// endianness. Values wider than width bytes are truncated modulo 2^(8*width),
// which is exactly what the sequence-number arithmetic needs.
func IntToBytes(v uint64, width int, littleEndian bool) ([]byte, error) {
	if width < 1 || width > 8 {
		return nil, fmt.Errorf("unsupported integer width %d", width)
	}
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		shift := uint(8 * (width - 1 - i))
		if littleEndian {
			shift = uint(8 * i)
		}
		out[i] = byte(v >> shift)
	}
	return out, nil
}

// BytesToInt decodes up to 8 bytes into an unsigned integer with the
// requested endianness.
func BytesToInt(b []byte, littleEndian bool) (uint64, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("cannot decode %d bytes into a 64-bit integer", len(b))
	}
	var v uint64
	for i, c := range b {
		shift := uint(8 * (len(b) - 1 - i))
		if littleEndian {
			shift = uint(8 * i)
		}
		v |= uint64(c) << shift
	}
	return v, nil
}

// HexEncode returns the uppercase hex representation of b. The uppercase
// form matters: classification tables and the UNKNOWN(0xHHHH) labels in the
// PTMF decoder are keyed on it.
func HexEncode(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// HexDecode parses a hex string (either case) into bytes.
func HexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex string %q: %w", s, err)
	}
	return b, nil
}
