package publish

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	branchPrefix = "docs/"
	slugMax      = 40
	stampLayout  = "20060102-150405"
)

// BranchName builds the scratch branch name for an edit of path:
// docs/<slug>-<UTC timestamp>-<token>. The token makes rapid repeated
// publishes of the same path collision-free.
func BranchName(path string, now time.Time, token string) string {
	return fmt.Sprintf("%s%s-%s-%s", branchPrefix, Slug(path), now.UTC().Format(stampLayout), token)
}

// Slug lowercases path, collapses runs of non-alphanumeric characters into
// single hyphens, and truncates to 40 characters with no leading or trailing
// hyphen. An input with no alphanumerics slugs to "file".
func Slug(path string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(path) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		default:
			hyphen = true
		}
	}
	s := b.String()
	if len(s) > slugMax {
		s = strings.TrimRight(s[:slugMax], "-")
	}
	if s == "" {
		return "file"
	}
	return s
}

func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
