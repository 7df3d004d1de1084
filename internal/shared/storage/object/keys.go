package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"strings"
	"unicode"
)

// Object keys longer than this get their stem truncated. Browser
// recordings arrive with names like "Recording 2026-08-25 at 10.12.wav"
// and some clients send the full local path as the name.
const maxFileNameLen = 128

// UserPrefix returns the key prefix that groups one user's objects.
// Hashing keeps raw identity strings (google:..., guest:...) out of
// bucket listings and filesystem paths.
func UserPrefix(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// SanitizeFileName turns a client-supplied file name into a safe key
// segment. Traversal patterns are rejected outright; separators,
// whitespace runs, and control characters collapse to underscores.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r):
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}

	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if len(s) > maxFileNameLen {
		ext := path.Ext(s)
		if len(ext) >= maxFileNameLen {
			ext = ""
		}
		s = s[:maxFileNameLen-len(ext)] + ext
	}
	return s, nil
}
