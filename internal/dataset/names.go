package dataset

import (
	"path/filepath"
	"strings"
)

// Singular strips one trailing "s" from a plural category name. Irregular
// plurals are not handled: "oranges" -> "orange", "peaches" -> "peache".
func Singular(name string) string {
	return strings.TrimSuffix(name, "s")
}

// Ext returns the final extension of the base name including the dot. A
// leading dot (".hidden") or trailing dot ("name.") is not an extension.
func Ext(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return base[i:]
}

// Stem returns the base name without its extension.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, Ext(base))
}
