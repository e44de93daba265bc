package blog

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenSlug turns a title into a URL-safe slug with a random suffix so two
// blogs with the same title never collide on the unique slug index.
func GenSlug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	suffix := randomSuffix()
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "0000"
	}
	return hex.EncodeToString(buf)
}
