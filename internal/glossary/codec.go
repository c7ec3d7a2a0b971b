// Package glossary encodes and decodes glossary entries in the line-oriented
// TSV and CSV formats accepted by the translation service.
package glossary

import (
	"fmt"
	"sort"
	"strings"
)

// Format selects the field separator of an entries blob.
type Format int

const (
	TSV Format = iota
	CSV
)

// ParseFormat accepts "tsv" or "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tsv":
		return TSV, nil
	case "csv":
		return CSV, nil
	}
	return 0, fmt.Errorf("unknown glossary entries format: %q", s)
}

func (f Format) String() string {
	if f == CSV {
		return "csv"
	}
	return "tsv"
}

// Separator returns the field separator for f.
func (f Format) Separator() string {
	if f == CSV {
		return ","
	}
	return "\t"
}

// ContentType is the media type used to request entries in format f.
func (f Format) ContentType() string {
	if f == CSV {
		return "text/csv"
	}
	return "text/tab-separated-values"
}

// Entries maps a source term to its target term.
type Entries map[string]string

// Encode writes one "source<sep>target" line per entry, sorted by source term.
// A term containing the separator or a line break cannot be represented and
// fails the whole encoding.
func Encode(entries Entries, f Format) (string, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sep := f.Separator()
	var sb strings.Builder
	for i, k := range keys {
		v := entries[k]
		if err := checkTerm(k, sep, f); err != nil {
			return "", err
		}
		if err := checkTerm(v, sep, f); err != nil {
			return "", fmt.Errorf("entry %q: %w", k, err)
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(k)
		sb.WriteString(sep)
		sb.WriteString(v)
	}
	return sb.String(), nil
}

func checkTerm(term, sep string, f Format) error {
	if strings.Contains(term, sep) {
		return fmt.Errorf("term %q contains the %s separator", term, f)
	}
	if strings.ContainsAny(term, "\r\n") {
		return fmt.Errorf("term %q contains a line break", term)
	}
	return nil
}

// Decode parses an entries blob. Lines that do not split into exactly two
// fields are dropped, which also absorbs a trailing blank line. A repeated
// source term keeps the value of its last occurrence.
func Decode(blob string, f Format) Entries {
	sep := f.Separator()
	entries := make(Entries)
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSuffix(line, "\r")
		fields := strings.Split(line, sep)
		if len(fields) != 2 {
			continue
		}
		entries[fields[0]] = fields[1]
	}
	return entries
}
