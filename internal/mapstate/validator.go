package mapstate

import (
	"fmt"
	"strings"
)

// Marker strings used to recognise the Leaflet stylesheet and its rules.
const (
	libraryHrefMarker = "leaflet"
	libraryRuleMarker = ".leaflet-"
)

const (
	IssueStylesheetMissing = "Leaflet CSS not loaded"
	IssueLibraryMissing    = "Leaflet library (window.L) not available"
)

// Stylesheet is a stylesheet loaded by the page. Rules holds the selector text of parsed rules and is
// only consulted when no href matches.
type Stylesheet struct {
	Href  string   `json:"href"`
	Rules []string `json:"rules,omitempty"`
}

// Environment describes the page hosting the map.
type Environment interface {
	Stylesheets() []Stylesheet
	HasLibrary() bool
	ReadyState() string
}

// ValidateEnvironment checks that the mapping library, its stylesheet and the document are ready.
// Issues are returned in a fixed order: stylesheet, library, document.
func ValidateEnvironment(env Environment) (bool, []string) {
	issues := []string{}

	if env == nil {
		return false, append(issues, "Map environment not reported")
	}

	if !hasLibraryStylesheet(env.Stylesheets()) {
		issues = append(issues, IssueStylesheetMissing)
	}
	if !env.HasLibrary() {
		issues = append(issues, IssueLibraryMissing)
	}
	if state := env.ReadyState(); state != "complete" {
		if state == "" {
			state = "unknown"
		}
		issues = append(issues, fmt.Sprintf("Document not fully loaded (readyState: %s)", state))
	}

	return len(issues) == 0, issues
}

func hasLibraryStylesheet(sheets []Stylesheet) bool {
	for _, s := range sheets {
		if strings.Contains(strings.ToLower(s.Href), libraryHrefMarker) {
			return true
		}
	}

	// Bundled CSS has no telling href, so look at the rules themselves.
	for _, s := range sheets {
		for _, rule := range s.Rules {
			if strings.Contains(rule, libraryRuleMarker) {
				return true
			}
		}
	}

	return false
}

// ValidationError composes the user-facing message for a failed validation. Every issue is kept.
func ValidationError(issues []string) string {
	return "Map library validation failed: " + strings.Join(issues, "; ")
}
