package tracker

import (
	"context"
	"fmt"
)

// Client abstracts the remote issue tracker. The bot engine only depends on
// this interface; one concrete adapter exists per transport (see jira.go).
type Client interface {
	// UpdateField sets a single field (built-in or custom) on an issue.
	UpdateField(ctx context.Context, issueKey, field string, value interface{}) error

	// ListVersions returns a project's versions in the tracker's order.
	ListVersions(ctx context.Context, projectKey string) ([]Version, error)

	// AddVersion creates a new version in a project.
	AddVersion(ctx context.Context, projectKey, name string) error

	// AvailableActions returns the workflow transitions currently valid for
	// an issue. The set is state-dependent and must be fetched fresh on
	// every workflow command.
	AvailableActions(ctx context.Context, issueKey string) ([]Transition, error)

	// PerformAction executes a workflow transition by its canonical name.
	PerformAction(ctx context.Context, issueKey, actionName string, fields map[string]string) error

	// FetchIssue retrieves an issue with its status and summary.
	FetchIssue(ctx context.Context, issueKey string) (*Issue, error)

	// BrowseBaseURL returns the tracker's web base URL for building
	// human-facing issue links.
	BrowseBaseURL() string
}

// Version is a project version (release) in the tracker.
type Version struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transition is a workflow action available for an issue in its current state.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue is the subset of issue data the bot needs.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the fields the bot reads from a fetched issue.
type IssueFields struct {
	Summary string `json:"summary"`
	Status  Status `json:"status"`
}

// Status is an issue's workflow status.
type Status struct {
	Name string `json:"name"`
}

// Fault is returned for any failed tracker round trip. StatusCode is the
// HTTP status when the tracker answered, or 0 for transport-level failures.
type Fault struct {
	StatusCode int
	Op         string
	Detail     string
}

func (f *Fault) Error() string {
	if f.StatusCode == 0 {
		return fmt.Sprintf("tracker %s failed: %s", f.Op, f.Detail)
	}
	return fmt.Sprintf("tracker %s failed with status %d: %s", f.Op, f.StatusCode, f.Detail)
}

// IsNotFound reports whether the fault is a 4xx-class response, which on an
// issue fetch means the issue does not exist.
func (f *Fault) IsNotFound() bool {
	return f.StatusCode >= 400 && f.StatusCode < 500
}
