package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ArticleID computes a deterministic article_id using SHA256.
// Formula: SHA256(url), or SHA256(source|title|publishedAt) when the url is empty.
// Returns hex-encoded hash (64 characters).
func ArticleID(url, source, title, publishedAt string) string {
	url = strings.TrimSpace(url)

	data := url
	if data == "" {
		data = fmt.Sprintf("%s|%s|%s", source, title, publishedAt)
	}

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
