package ingest

import (
	"fmt"
	"strings"
)

// AllowedExtensions is the accept-set of the filename policy, lower case and
// without the leading dot.
var AllowedExtensions = []string{"jpeg", "jpg", "png"}

// Validate classifies key by the extension after its last dot,
// case-insensitively. It has no side effects.
func Validate(key string) ValidationOutcome {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return ValidationOutcome{Reason: "no extension"}
	}
	ext := key[i+1:]
	if ext == "" || strings.Contains(ext, "/") {
		return ValidationOutcome{Reason: "no extension"}
	}
	ext = strings.ToLower(ext)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ValidationOutcome{Accepted: true}
		}
	}
	return ValidationOutcome{
		Reason: fmt.Sprintf("unsupported file type .%s; only .jpeg, .jpg and .png files are allowed", ext),
	}
}
