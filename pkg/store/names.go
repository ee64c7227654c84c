package store

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbitra/pkg/core"
)

// Extension is the file extension of every stored document.
const Extension = ".json"

// SanitizeName maps a logical document name onto a path-safe identifier.
// A trailing ".json" is dropped, and every rune outside [A-Za-z0-9._-] becomes '_'.
func SanitizeName(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), Extension)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	clean := b.String()
	if clean == "" || strings.Trim(clean, ".") == "" {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidName, name)
	}
	return clean, nil
}
