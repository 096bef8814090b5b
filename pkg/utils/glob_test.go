package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		value     string
		wantMatch bool
		wantErr   bool
	}{
		{name: "star matches anything", pattern: "*", value: "anything", wantMatch: true},
		{name: "star matches empty", pattern: "*", value: "", wantMatch: true},
		{name: "exact match", pattern: "WebHooks", value: "WebHooks", wantMatch: true},
		{name: "exact case sensitive", pattern: "webhooks", value: "WebHooks", wantMatch: false},
		{name: "prefix with star", pattern: "Report*", value: "ReportTemplatePDF", wantMatch: true},
		{name: "suffix with star", pattern: "*Test", value: "prepareTestDataTest", wantMatch: true},
		{name: "question mark", pattern: "scope?", value: "scope1", wantMatch: true},
		{name: "char class mismatch", pattern: "team-[abc]", value: "team-d", wantMatch: false},
		{name: "invalid pattern bracket", pattern: "[invalid", value: "test", wantErr: true},
		{name: "empty pattern vs value", pattern: "", value: "test", wantMatch: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			matched, err := GlobMatch(tc.pattern, tc.value)
			if tc.wantErr {
				require.Error(t, err)
				assert.False(t, matched)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMatch, matched)
		})
	}
}

func TestGlobMatchAny(t *testing.T) {
	assert.True(t, GlobMatchAny([]string{"[bad", "Web*"}, "WebHooks"))
	assert.False(t, GlobMatchAny([]string{"SSO"}, "WebHooks"))
	assert.False(t, GlobMatchAny(nil, "WebHooks"))
}

func TestMatchScenario(t *testing.T) {
	tests := []struct {
		pattern, class, name string
		want                 bool
	}{
		{"WebHooks*", "WebHooks", "assignReleasesTest", true},
		{"*ScopeTest", "PersonalAccessToken", "startScansScopeTest", true},
		{"PersonalAccessToken/view*", "PersonalAccessToken", "viewAppsScopeTest", true},
		{"PersonalAccessToken/view*", "PersonalAccessToken", "manageAppsScopeTest", false},
		{"Reports/*", "WebHooks", "assignReleasesTest", false},
		{"*", "Any", "thing", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchScenario(tt.pattern, tt.class, tt.name), "%s vs %s/%s", tt.pattern, tt.class, tt.name)
	}
}

func TestMatchAnyScenario(t *testing.T) {
	assert.True(t, MatchAnyScenario(nil, "WebHooks", "x"))
	assert.True(t, MatchAnyScenario([]string{"SSO", "Web*"}, "WebHooks", "x"))
	assert.False(t, MatchAnyScenario([]string{"SSO"}, "WebHooks", "x"))
}
