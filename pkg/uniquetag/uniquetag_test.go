package uniquetag

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	tag := Generate()
	require.Regexp(t, regexp.MustCompile(`^\d{12}[0-9a-f]{6}$`), tag)
}

func TestGenerateDeterministicWithStubs(t *testing.T) {
	origNow, origUUID := now, newUUID
	defer func() { now, newUUID = origNow, origUUID }()

	now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 12, 0, time.UTC) }
	newUUID = func() string { return "a1b2c3d4-0000-0000-0000-000000000000" }

	assert.Equal(t, "261016093012a1b2c3", Generate())
	assert.Equal(t, "App-261016093012a1b2c3", WithPrefix("App-"))
}

func TestGenerateIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		tag := Generate()
		_, dup := seen[tag]
		require.False(t, dup, "duplicate tag %s", tag)
		seen[tag] = struct{}{}
	}
}

func TestRunID(t *testing.T) {
	assert.Len(t, RunID(), 36)
}
