package connectors

import (
	"mime"
	"path"
	"strings"
)

var knownTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".json":     "application/json",
}

// MimeType guesses the media type of a document from its name. It reports
// false for types the converter cannot read.
func MimeType(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := knownTypes[ext]; ok {
		return t, true
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	for _, known := range knownTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}
