package gh

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// BlobSHA returns the git blob object SHA-1 for content, matching the sha the
// contents API reports for a file with the same bytes.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
