// Package enum holds helpers for the text form of small integer enums used in
// configuration files.
package enum

import (
	"fmt"
	"strings"
)

// Name returns names[v], or a "Type(v)" placeholder when v is out of range.
func Name[T ~int](typ string, names []string, v T) string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("%s(%d)", typ, int(v))
	}

	return names[v]
}

// Parse resolves s against names, ignoring case, surrounding space and the
// difference between '-', '_' and ' '.
func Parse[T ~int](typ string, names []string, s string) (T, error) {
	key := normalize(s)
	for i, n := range names {
		if normalize(n) == key {
			return T(i), nil
		}
	}

	return 0, fmt.Errorf("unknown %s %q (want one of %s)", typ, s, strings.Join(names, ", "))
}

// Unmarshal parses text into dst. Errors wrap sentinel so callers can match
// their package's configuration error.
func Unmarshal[T ~int](dst *T, sentinel error, typ string, names []string, text []byte) error {
	v, err := Parse[T](typ, names, string(text))
	if err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	*dst = v

	return nil
}

// Marshal returns the text form of v or an error when v is out of range.
func Marshal[T ~int](typ string, names []string, v T) ([]byte, error) {
	if v < 0 || int(v) >= len(names) {
		return nil, fmt.Errorf("unknown %s %d", typ, int(v))
	}

	return []byte(names[v]), nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}
