package usecase

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// normalizeCode deja códigos de ubicación y SKUs en forma canónica: sin espacios en los extremos,
// NFKC y en mayúsculas. "  wh-a " y "WH-A" son el mismo código.
func normalizeCode(s string) string {
	return cases.Upper(language.Und).String(norm.NFKC.String(strings.TrimSpace(s)))
}
