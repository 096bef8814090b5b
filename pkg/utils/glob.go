package utils

import (
	"path"
	"strings"
)

// GlobMatch checks if a value matches a glob pattern.
// Patterns support these wildcards (path.Match semantics):
//   - "*" matches any sequence of non-separator characters
//   - "?" matches any single non-separator character
//   - "[...]" matches character classes
//
// Special cases:
//   - Pattern "*" matches everything
//   - Pattern without wildcards uses exact string matching
//   - Invalid patterns return false and the error
func GlobMatch(pattern, value string) (bool, error) {
	if pattern == "*" {
		return true, nil
	}

	if strings.ContainsAny(pattern, "*?[") {
		matched, err := path.Match(pattern, value)
		if err != nil {
			return false, err
		}
		return matched, nil
	}

	return pattern == value, nil
}

// GlobMatchAny checks if any pattern in the list matches the value.
// Patterns that fail to parse are skipped.
func GlobMatchAny(patterns []string, value string) bool {
	for _, pattern := range patterns {
		if matched, _ := GlobMatch(pattern, value); matched {
			return true
		}
	}
	return false
}

// MatchScenario reports whether pattern selects the scenario name of class.
// The pattern may address the class ("WebHooks*"), the scenario
// ("*ScopeTest") or both ("PersonalAccessToken/view*").
//
//	MatchScenario("WebHooks*", "WebHooks", "assignReleasesTest")            → true
//	MatchScenario("*ScopeTest", "PersonalAccessToken", "startScansScopeTest") → true
//	MatchScenario("PersonalAccessToken/view*", "PersonalAccessToken", "viewAppsScopeTest") → true
//	MatchScenario("Reports/*", "WebHooks", "assignReleasesTest")            → false
func MatchScenario(pattern, class, name string) bool {
	if strings.Contains(pattern, "/") {
		matched, _ := GlobMatch(pattern, class+"/"+name)
		return matched
	}
	if matched, _ := GlobMatch(pattern, class); matched {
		return true
	}
	matched, _ := GlobMatch(pattern, name)
	return matched
}

// MatchAnyScenario is MatchScenario over several patterns. An empty list matches
// everything.
func MatchAnyScenario(patterns []string, class, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if MatchScenario(p, class, name) {
			return true
		}
	}
	return false
}
