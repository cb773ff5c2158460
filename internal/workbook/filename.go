package workbook

import (
	"strings"
	"unicode"
)

const (
	filenamePrefix  = "financeiro-"
	fallbackName    = "plano"
	maxFilenameBase = 60
)

// OutputFilename names the exported workbook after the plan nickname, or
// its title when there is none. The name keeps ASCII letters, digits,
// '_', '-' and Latin accented letters; whitespace runs become '-'.
func OutputFilename(nickname, title string) string {
	name := strings.TrimSpace(nickname)
	if name == "" {
		name = strings.TrimSpace(title)
	}
	base := sanitize(name)
	if base == "" {
		base = fallbackName
	}
	return filenamePrefix + base + ".xlsx"
}

func sanitize(name string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range name {
		if r == ' ' {
			pendingSpace = true
			continue
		}
		if !allowedRune(r) {
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteRune('-')
		}
		pendingSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	out := []rune(b.String())
	if len(out) > maxFilenameBase {
		out = out[:maxFilenameBase]
	}
	return string(out)
}

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	case r >= 0x00C0 && r <= 0x024F:
		return true
	}
	return false
}
