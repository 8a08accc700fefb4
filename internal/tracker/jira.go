package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// JiraClient is a custom HTTP client for the Jira REST API (v2).
// The legacy SOAP transport is not implemented; the Client interface
// admits further adapters if one is ever needed.
type JiraClient struct {
	baseURL string
	webURL  string
	user    string
	token   string
	client  *http.Client
}

// NewJiraClient creates a Jira REST client. baseURL is the tracker's web
// root (also used for /browse links); credentials are sent as basic auth.
func NewJiraClient(baseURL, user, token string) *JiraClient {
	webURL := strings.TrimSuffix(baseURL, "/")

	return &JiraClient{
		baseURL: webURL + "/rest/api/2",
		webURL:  webURL,
		user:    user,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// BrowseBaseURL returns the web root for building /browse/<key> links.
func (c *JiraClient) BrowseBaseURL() string {
	return c.webURL
}

// UpdateField sets one field on an issue. Built-in user fields (assignee)
// take the bare username; custom fields are addressed by their display name
// and resolved to a field ID through the field catalog.
func (c *JiraClient) UpdateField(ctx context.Context, issueKey, field string, value interface{}) error {
	fieldID, payload, err := c.fieldPayload(ctx, field, value)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"fields": map[string]interface{}{fieldID: payload},
	}

	requestURL := fmt.Sprintf("%s/issue/%s", c.baseURL, url.PathEscape(issueKey))
	return c.do(ctx, "update field", http.MethodPut, requestURL, body, nil, http.StatusNoContent, http.StatusOK)
}

// ListVersions returns a project's versions in the order Jira reports them.
func (c *JiraClient) ListVersions(ctx context.Context, projectKey string) ([]Version, error) {
	requestURL := fmt.Sprintf("%s/project/%s/versions", c.baseURL, url.PathEscape(projectKey))

	var versions []Version
	if err := c.do(ctx, "list versions", http.MethodGet, requestURL, nil, &versions, http.StatusOK); err != nil {
		return nil, err
	}
	return versions, nil
}

// AddVersion creates a new version in a project.
func (c *JiraClient) AddVersion(ctx context.Context, projectKey, name string) error {
	body := map[string]interface{}{
		"name":    name,
		"project": projectKey,
	}

	requestURL := fmt.Sprintf("%s/version", c.baseURL)
	return c.do(ctx, "add version", http.MethodPost, requestURL, body, nil, http.StatusCreated, http.StatusOK)
}

// AvailableActions returns the workflow transitions valid for the issue in
// its current status.
func (c *JiraClient) AvailableActions(ctx context.Context, issueKey string) ([]Transition, error) {
	requestURL := fmt.Sprintf("%s/issue/%s/transitions", c.baseURL, url.PathEscape(issueKey))

	var resp struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := c.do(ctx, "list actions", http.MethodGet, requestURL, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Transitions, nil
}

// PerformAction executes a workflow transition by its canonical name. Jira
// addresses transitions by ID, so the name is resolved against the live
// transition set first.
func (c *JiraClient) PerformAction(ctx context.Context, issueKey, actionName string, fields map[string]string) error {
	actions, err := c.AvailableActions(ctx, issueKey)
	if err != nil {
		return err
	}

	var transitionID string
	for _, a := range actions {
		if strings.EqualFold(a.Name, actionName) {
			transitionID = a.ID
			break
		}
	}
	if transitionID == "" {
		return &Fault{Op: "perform action", Detail: fmt.Sprintf("transition %q is no longer available for %s", actionName, issueKey)}
	}

	body := map[string]interface{}{
		"transition": map[string]string{"id": transitionID},
	}
	if len(fields) > 0 {
		extra := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			extra[k] = v
		}
		body["fields"] = extra
	}

	requestURL := fmt.Sprintf("%s/issue/%s/transitions", c.baseURL, url.PathEscape(issueKey))
	return c.do(ctx, "perform action", http.MethodPost, requestURL, body, nil, http.StatusNoContent, http.StatusOK)
}

// FetchIssue retrieves an issue's key, summary, and status.
func (c *JiraClient) FetchIssue(ctx context.Context, issueKey string) (*Issue, error) {
	requestURL := fmt.Sprintf("%s/issue/%s?fields=summary,status", c.baseURL, url.PathEscape(issueKey))

	var issue Issue
	if err := c.do(ctx, "fetch issue", http.MethodGet, requestURL, nil, &issue, http.StatusOK); err != nil {
		return nil, err
	}
	if issue.Key == "" {
		return nil, &Fault{Op: "fetch issue", Detail: "response lacks an issue key"}
	}
	return &issue, nil
}

// fieldPayload maps a field's display name to the Jira field ID and wraps
// the value in the shape that field expects.
func (c *JiraClient) fieldPayload(ctx context.Context, field string, value interface{}) (string, interface{}, error) {
	if strings.EqualFold(field, "assignee") {
		return "assignee", map[string]interface{}{"name": value}, nil
	}

	requestURL := fmt.Sprintf("%s/field", c.baseURL)
	var catalog []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, "list fields", http.MethodGet, requestURL, nil, &catalog, http.StatusOK); err != nil {
		return "", nil, err
	}

	for _, f := range catalog {
		if f.ID == field || strings.EqualFold(f.Name, field) {
			return f.ID, fieldValue(value), nil
		}
	}
	return "", nil, &Fault{Op: "update field", Detail: fmt.Sprintf("no field named %q", field)}
}

// fieldValue converts engine-level values into Jira's wire shapes. Version
// ID lists become arrays of {"id": ...} references.
func fieldValue(value interface{}) interface{} {
	ids, ok := value.([]string)
	if !ok {
		return value
	}
	refs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, map[string]string{"id": id})
	}
	return refs
}

// do performs one request/response round trip. Any failure, transport or
// HTTP, is surfaced as a *Fault; there is no retry.
func (c *JiraClient) do(ctx context.Context, op, method, requestURL string, body interface{}, out interface{}, okStatus ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Fault{Op: op, Detail: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return &Fault{Op: op, Detail: fmt.Sprintf("create request: %v", err)}
	}

	req.SetBasicAuth(c.user, c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Fault{Op: op, Detail: err.Error()}
	}
	defer resp.Body.Close()

	ok := false
	for _, s := range okStatus {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("url", requestURL).Msg("Jira request failed")
		return &Fault{StatusCode: resp.StatusCode, Op: op, Detail: string(detail)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Fault{Op: op, Detail: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}
