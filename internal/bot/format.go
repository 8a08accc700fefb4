package bot

import (
	"strings"

	"github.com/issuebot/internal/tracker"
)

// IssueSummary builds the one-line issue reply:
//
//	Issue PROJ-9 (Open): Fix crash - https://tracker/browse/PROJ-9
//
// The key from the response is used throughout, since the tracker may
// normalize the key the operator typed.
func IssueSummary(issue *tracker.Issue, baseURL string) string {
	bits := []string{"Issue", issue.Key}

	if issue.Fields.Status.Name != "" {
		bits = append(bits, "("+issue.Fields.Status.Name+")")
	}
	bits[len(bits)-1] += ":"

	summary := issue.Fields.Summary
	if summary == "" {
		summary = "(no summary)"
	}
	bits = append(bits, summary, "-", BrowseURL(baseURL, issue.Key))

	return strings.Join(bits, " ")
}

// BrowseURL joins the tracker's web base URL with /browse/<key>.
func BrowseURL(baseURL, issueKey string) string {
	return strings.TrimSuffix(baseURL, "/") + "/browse/" + issueKey
}

// ActionNames renders transition names as a comma-separated list, in the
// order the tracker reported them.
func ActionNames(actions []tracker.Transition) string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// VersionNames renders version names as a comma-separated list.
func VersionNames(versions []tracker.Version) string {
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		names = append(names, v.Name)
	}
	return strings.Join(names, ", ")
}
