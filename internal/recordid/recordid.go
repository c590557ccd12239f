// Package recordid derives a stable record id from an image source, so analyzing the
// same image twice targets the same record.
package recordid

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const maxBaseLen = 48

// FromSource returns the record id for an image URL or file path.
// The id is the sanitized lower-case base name without extension, followed by "_"
// and 8 hex characters of the SHA-256 of that base name. Query strings and
// fragments of URLs are ignored.
func FromSource(source string) string {
	base := baseName(source)
	hash := sha256.Sum256([]byte(base))
	return sanitize(base) + "_" + hex.EncodeToString(hash[:4])
}

func baseName(source string) string {
	source = strings.TrimSpace(source)
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		source = path.Base(u.Path)
	} else {
		source = filepath.Base(filepath.Clean(source))
	}
	if ext := path.Ext(source); ext != "" {
		source = strings.TrimSuffix(source, ext)
	}
	return strings.ToLower(source)
}

func sanitize(base string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	s := strings.TrimRight(b.String(), "_")
	if len(s) > maxBaseLen {
		s = strings.TrimRight(s[:maxBaseLen], "_")
	}
	if s == "" {
		s = "outfit"
	}
	return s
}
