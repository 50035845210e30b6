package storage

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// mediaNamePattern matches CDN media basenames such as
// 443711036_417575674565247_1156670569594802102_n.webp.
var mediaNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.(?:jpg|jpeg|png|webp|gif)$`)

// FilenameFromURL derives a local filename for a media URL. When the URL
// path ends in a recognizable media basename that name is kept; otherwise
// a deterministic fallback is generated from a hash of the URL, so the
// same URL always maps to the same file.
func FilenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil {
		base := path.Base(u.Path)
		if mediaNamePattern.MatchString(base) {
			return base
		}
	}

	return fallbackFilename(raw)
}

// fallbackFilename builds a valid filesystem name from the URL hash,
// keeping the extension when one can be recovered.
func fallbackFilename(raw string) string {
	h := fnv.New64a()
	h.Write([]byte(raw))

	ext := extFromURL(raw)
	if ext == "" {
		ext = ".jpg"
	}

	return fmt.Sprintf("media_%016x%s", h.Sum64(), ext)
}

// extFromURL extracts a plausible lowercase extension from the URL path.
func extFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if ext == "" || len(ext) > 6 {
		return ""
	}
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return strings.ToLower(ext)
}
