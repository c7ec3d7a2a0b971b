// Package lang is the registry of language codes understood by the
// translation service.
//
// Some codes are only valid as a source (EN, PT) and some only as a target
// (EN-US, PT-BR, ...). The registry records that role but does not enforce it;
// the service rejects invalid pairs.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrInvalidLanguage is returned by Parse for codes outside the registry.
var ErrInvalidLanguage = errors.New("invalid language")

// Language is a language code supported by the service. The zero value Und
// is no language; it is never parsed and never sent.
type Language int

const (
	Und Language = iota
	AR
	BG
	CS
	DA
	DE
	EL
	EN
	ENGB
	ENUS
	ES
	ES419
	ET
	FI
	FR
	HU
	ID
	IT
	JA
	KO
	LT
	LV
	NB
	NL
	PL
	PT
	PTBR
	PTPT
	RO
	RU
	SK
	SL
	SV
	TR
	UK
	ZH
	ZHHANS
	ZHHANT
)

// Role describes in which position of a language pair a code is accepted.
type Role int

const (
	Both Role = iota
	Source
	Target
)

type entry struct {
	code string
	role Role
}

var registry = [...]entry{
	AR:     {"AR", Both},
	BG:     {"BG", Both},
	CS:     {"CS", Both},
	DA:     {"DA", Both},
	DE:     {"DE", Both},
	EL:     {"EL", Both},
	EN:     {"EN", Source},
	ENGB:   {"EN-GB", Target},
	ENUS:   {"EN-US", Target},
	ES:     {"ES", Both},
	ES419:  {"ES-419", Target},
	ET:     {"ET", Both},
	FI:     {"FI", Both},
	FR:     {"FR", Both},
	HU:     {"HU", Both},
	ID:     {"ID", Both},
	IT:     {"IT", Both},
	JA:     {"JA", Both},
	KO:     {"KO", Both},
	LT:     {"LT", Both},
	LV:     {"LV", Both},
	NB:     {"NB", Both},
	NL:     {"NL", Both},
	PL:     {"PL", Both},
	PT:     {"PT", Source},
	PTBR:   {"PT-BR", Target},
	PTPT:   {"PT-PT", Target},
	RO:     {"RO", Both},
	RU:     {"RU", Both},
	SK:     {"SK", Both},
	SL:     {"SL", Both},
	SV:     {"SV", Both},
	TR:     {"TR", Both},
	UK:     {"UK", Both},
	ZH:     {"ZH", Both},
	ZHHANS: {"ZH-HANS", Target},
	ZHHANT: {"ZH-HANT", Target},
}

var byCode = func() map[string]Language {
	m := make(map[string]Language, len(registry))
	for i, e := range registry {
		if Language(i) != Und {
			m[e.code] = Language(i)
		}
	}
	return m
}()

// Normalize returns the canonical wire form of code: trimmed, uppercase,
// with "_" replaced by "-".
func Normalize(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// Parse resolves a wire code, case-insensitively.
func Parse(code string) (Language, error) {
	if l, ok := byCode[Normalize(code)]; ok {
		return l, nil
	}
	return Und, fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
}

// All returns every registered language in declaration order.
func All() []Language {
	all := make([]Language, 0, len(registry)-1)
	for i := range registry {
		if Language(i) != Und {
			all = append(all, Language(i))
		}
	}
	return all
}

// Valid reports whether l is a registered language; Und is not.
func (l Language) Valid() bool {
	return l > Und && int(l) < len(registry)
}

// String returns the canonical wire code, e.g. "EN-US".
func (l Language) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Language(%d)", int(l))
	}
	return registry[l].code
}

// Role reports whether l is accepted as source, target or both.
func (l Language) Role() Role {
	if !l.Valid() {
		return Both
	}
	return registry[l].role
}

func (l Language) CanSource() bool { return l.Role() != Target }

func (l Language) CanTarget() bool { return l.Role() != Source }

// Tag returns the BCP 47 tag for l.
func (l Language) Tag() language.Tag {
	if !l.Valid() {
		return language.Und
	}
	return language.Make(strings.ToLower(registry[l].code))
}

// Name returns the English display name of l, falling back to the code.
func (l Language) Name() string {
	if name := display.English.Tags().Name(l.Tag()); name != "" {
		return name
	}
	return l.String()
}

// MarshalText implements encoding.TextMarshaler.
func (l Language) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLanguage, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (r Role) String() string {
	switch r {
	case Source:
		return "source"
	case Target:
		return "target"
	default:
		return "source,target"
	}
}
