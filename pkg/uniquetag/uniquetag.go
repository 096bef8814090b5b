// Package uniquetag generates the run-unique suffixes appended to every entity the
// harness creates in the product, so repeated and parallel runs never collide on names.
package uniquetag

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layout is the timestamp part of a tag: yyMMddHHmmss.
const Layout = "060102150405"

var (
	now     = time.Now
	newUUID = uuid.NewString
)

// Generate returns a tag such as "261016093012a1b2c3". Tags only contain digits and
// lowercase hex letters, which every product form accepts.
func Generate() string {
	id := strings.ReplaceAll(newUUID(), "-", "")
	return now().UTC().Format(Layout) + id[:6]
}

// WithPrefix returns prefix followed by a fresh tag.
func WithPrefix(prefix string) string {
	return prefix + Generate()
}

// RunID returns a full uuid identifying one harness run.
func RunID() string {
	return newUUID()
}
