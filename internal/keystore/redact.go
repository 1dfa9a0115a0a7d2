package keystore

import "strings"

const (
	redactMask     = "*****"
	redactPrefix   = 6
	redactShortMax = 7
)

// RedactKey masks a key for logs and audit records. Short keys collapse to
// a fixed mask so their length is not disclosed; longer keys keep only a
// six character prefix.
func RedactKey(key string) string {
	if key == "" {
		return ""
	}

	runes := []rune(key)
	if len(runes) <= redactShortMax {
		return redactMask
	}

	var b strings.Builder
	b.WriteString(string(runes[:redactPrefix]))
	b.WriteString("...")
	return b.String()
}
