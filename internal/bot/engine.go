package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/issuebot/internal/store"
	"github.com/issuebot/internal/tracker"
)

// Engine executes one chat command at a time: resolve the issue reference,
// make at most one read plus one write round trip to the tracker, and build
// the reply. Tracker faults never escape; they are logged for operators and
// converted to a one-line reply without internal detail.
type Engine struct {
	client tracker.Client
	refs   *RefResolver
}

// NewEngine creates an engine over a tracker client and a context store.
func NewEngine(client tracker.Client, contexts store.ContextStore) *Engine {
	return &Engine{
		client: client,
		refs:   NewRefResolver(contexts),
	}
}

// Assign sets an issue's assignee. The assignee is the tracker username,
// not the chat nick.
func (e *Engine) Assign(ctx context.Context, contextKey, issueArg, assignee string) string {
	key, reply := e.resolveRef(ctx, contextKey, issueArg)
	if reply != "" {
		return reply
	}

	log.Info().Str("issue", key).Str("assignee", assignee).Msg("Setting assignee")
	if err := e.client.UpdateField(ctx, key, "assignee", assignee); err != nil {
		return e.trackerFailure("assign", key, err, "failed to update "+key)
	}
	return fmt.Sprintf("Assigned %s to %s", key, assignee)
}

// SetField sets a named (usually custom) field on an issue.
func (e *Engine) SetField(ctx context.Context, contextKey, issueArg, field, value string) string {
	key, reply := e.resolveRef(ctx, contextKey, issueArg)
	if reply != "" {
		return reply
	}

	log.Info().Str("issue", key).Str("field", field).Str("value", value).Msg("Setting field")
	if err := e.client.UpdateField(ctx, key, field, value); err != nil {
		return e.trackerFailure("setfield", key, err, "failed to update "+key)
	}
	return fmt.Sprintf("Set %s of %s to %s", field, key, value)
}

// Target sets an issue's target versions. Each requested name is matched by
// exact equality against the version list of the issue's project (the key
// prefix before the first dash); names with no match are reported back
// rather than silently dropped.
func (e *Engine) Target(ctx context.Context, contextKey, issueArg string, names []string) string {
	key, reply := e.resolveRef(ctx, contextKey, issueArg)
	if reply != "" {
		return reply
	}

	project := strings.SplitN(key, "-", 2)[0]
	versions, err := e.client.ListVersions(ctx, project)
	if err != nil {
		return e.trackerFailure("target", key, err, "failed to list versions for "+project)
	}

	byName := make(map[string]tracker.Version, len(versions))
	for _, v := range versions {
		byName[v.Name] = v
	}

	var ids, matched, unmatched []string
	for _, name := range names {
		v, ok := byName[name]
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}
		ids = append(ids, v.ID)
		matched = append(matched, v.Name)
	}

	log.Info().Str("issue", key).Strs("versions", ids).Msg("Setting target versions")
	if err := e.client.UpdateField(ctx, key, "Target Version/s", ids); err != nil {
		return e.trackerFailure("target", key, err, "failed to update "+key)
	}

	msg := fmt.Sprintf("Set target versions for %s to %s", key, strings.Join(matched, ", "))
	if len(matched) == 0 {
		msg = fmt.Sprintf("Set target versions for %s to none", key)
	}
	if len(unmatched) > 0 {
		msg += fmt.Sprintf(" (no match: %s)", strings.Join(unmatched, ", "))
	}
	return msg
}

// AddVersion creates a version in a project.
func (e *Engine) AddVersion(ctx context.Context, project, name string) string {
	if err := e.client.AddVersion(ctx, project, name); err != nil {
		return e.trackerFailure("addversion", project, err, "failed to add version to "+project)
	}
	return fmt.Sprintf("Added version %s to %s", name, project)
}

// ListVersions lists a project's versions.
func (e *Engine) ListVersions(ctx context.Context, project string) string {
	versions, err := e.client.ListVersions(ctx, project)
	if err != nil {
		return e.trackerFailure("versions", project, err, "failed to list versions for "+project)
	}
	return fmt.Sprintf("Current versions in %s: %s", project, VersionNames(versions))
}

// Current reports the issue currently bound to the context.
func (e *Engine) Current(ctx context.Context, contextKey string) string {
	key, err := e.refs.Resolve(ctx, contextKey, PreviousIssueRef)
	if err != nil {
		if errors.Is(err, ErrNoPriorReference) {
			return "No previous issue found"
		}
		return e.storeFailure(contextKey, err)
	}
	return "Current issue is " + key
}

// Workflow performs a workflow transition, or lists the valid ones when the
// requested action is the reserved word "list". The transition set is
// fetched fresh on every call; abbreviations resolve by case-insensitive
// prefix and an ambiguous or unmatched request performs no mutation.
func (e *Engine) Workflow(ctx context.Context, contextKey, issueArg, action string) string {
	key, reply := e.resolveRef(ctx, contextKey, issueArg)
	if reply != "" {
		return reply
	}

	actions, err := e.client.AvailableActions(ctx, key)
	if err != nil {
		return e.trackerFailure("wf", key, err, "failed to list actions for "+key)
	}

	if strings.EqualFold(action, "list") {
		return "Available actions: " + ActionNames(actions)
	}

	match := MatchAction(action, actions)
	switch match.Kind {
	case NoMatch:
		return "No matching actions. Possible actions: " + ActionNames(match.Candidates)
	case Ambiguous:
		return fmt.Sprintf("workflow action '%s' is ambiguous. Possible matches: %s",
			action, ActionNames(match.Candidates))
	}

	log.Info().Str("issue", key).Str("action", match.Action.Name).Msg("Performing workflow action")
	if err := e.client.PerformAction(ctx, key, match.Action.Name, nil); err != nil {
		return e.trackerFailure("wf", key, err, "failed to perform "+match.Action.Name+" on "+key)
	}

	issue, err := e.client.FetchIssue(ctx, key)
	if err != nil {
		return e.trackerFailure("wf", key, err, "performed "+match.Action.Name+" but failed to fetch new status of "+key)
	}
	return fmt.Sprintf("%s now has status '%s'", key, issue.Fields.Status.Name)
}

// GetIssue replies with a one-line summary of an issue and its web link. A
// 4xx from the tracker means the issue does not exist; any other fault is a
// generic retrieval failure with the detail kept in the logs. Note the
// binding write happens during reference resolution, so the context stays
// bound to the requested key even when the fetch fails.
func (e *Engine) GetIssue(ctx context.Context, contextKey, issueArg string) string {
	key, reply := e.resolveRef(ctx, contextKey, issueArg)
	if reply != "" {
		return reply
	}

	issue, err := e.client.FetchIssue(ctx, key)
	if err != nil {
		var fault *tracker.Fault
		if errors.As(err, &fault) && fault.IsNotFound() {
			return fmt.Sprintf("issue %s does not exist.", key)
		}
		return e.trackerFailure("issue", key, err, "failed to retrieve issue data")
	}

	return IssueSummary(issue, e.client.BrowseBaseURL())
}

// resolveRef resolves an issue argument; a non-empty reply means resolution
// failed and the command must stop before any tracker call.
func (e *Engine) resolveRef(ctx context.Context, contextKey, issueArg string) (string, string) {
	key, err := e.refs.Resolve(ctx, contextKey, issueArg)
	if err != nil {
		if errors.Is(err, ErrNoPriorReference) {
			return "", "No previous issue found"
		}
		return "", e.storeFailure(contextKey, err)
	}
	return key, ""
}

func (e *Engine) trackerFailure(op, key string, err error, reply string) string {
	log.Error().Err(err).Str("op", op).Str("issue", key).Msg("Tracker call failed")
	return reply
}

func (e *Engine) storeFailure(contextKey string, err error) string {
	log.Error().Err(err).Str("context", contextKey).Msg("Context store failure")
	return "failed to access the context store"
}
