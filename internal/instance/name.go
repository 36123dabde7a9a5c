package instance

import (
	"strings"
	"unicode"

	"erpcore/internal/snapshot"
)

const invalidFileChars = `<>:"/\|?*`

// BaseName returns the file-safe base name of an instance: lower-cased,
// characters invalid on common filesystems and control characters dropped,
// spaces replaced with '-'.
func BaseName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r == ' ':
			b.WriteRune('-')
		case unicode.IsControl(r), strings.ContainsRune(invalidFileChars, r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MainKey is the storage key of the main snapshot of name.
func MainKey(name string) string { return BaseName(name) + snapshot.Extension }

// SecretsKey is the storage key of the secrets snapshot of name.
func SecretsKey(name string) string { return BaseName(name) + snapshot.SecretsExtension }
