package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /rest/api/2/issue/PROJ-9":
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			require.Equal(t, "bot", user)
			require.Equal(t, "secret", pass)
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"key":"PROJ-9","fields":{"summary":"Fix crash","status":{"name":"Open"}}}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	issue, err := c.FetchIssue(context.Background(), "PROJ-9")
	require.NoError(t, err)
	require.Equal(t, "PROJ-9", issue.Key)
	require.Equal(t, "Fix crash", issue.Fields.Summary)
	require.Equal(t, "Open", issue.Fields.Status.Name)
}

func TestFetchIssueNotFoundFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errorMessages":["Issue Does Not Exist"]}`)
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	_, err := c.FetchIssue(context.Background(), "PROJ-404")

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.Equal(t, http.StatusNotFound, fault.StatusCode)
	require.True(t, fault.IsNotFound())
}

func TestFetchIssueMissingKeyIsFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"fields":{"summary":"odd"}}`)
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	_, err := c.FetchIssue(context.Background(), "PROJ-1")

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.False(t, fault.IsNotFound())
}

func TestAvailableActionsPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /rest/api/2/issue/PROJ-1/transitions":
			io.WriteString(w, `{"transitions":[{"id":"5","name":"Resolve Issue"},{"id":"3","name":"Reopen"}]}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	actions, err := c.AvailableActions(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Equal(t, []Transition{{ID: "5", Name: "Resolve Issue"}, {ID: "3", Name: "Reopen"}}, actions)
}

func TestPerformActionResolvesNameToID(t *testing.T) {
	var posted map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /rest/api/2/issue/PROJ-1/transitions":
			io.WriteString(w, `{"transitions":[{"id":"5","name":"Resolve Issue"},{"id":"3","name":"Reopen"}]}`)
		case "POST /rest/api/2/issue/PROJ-1/transitions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	err := c.PerformAction(context.Background(), "PROJ-1", "Resolve Issue", nil)
	require.NoError(t, err)

	transition, ok := posted["transition"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "5", transition["id"])
}

func TestPerformActionGoneTransitionIsFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"transitions":[{"id":"3","name":"Reopen"}]}`)
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	err := c.PerformAction(context.Background(), "PROJ-1", "Resolve Issue", nil)

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.Contains(t, fault.Detail, "no longer available")
}

func TestUpdateFieldAssignee(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "PUT /rest/api/2/issue/PROJ-1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	err := c.UpdateField(context.Background(), "PROJ-1", "assignee", "alice")
	require.NoError(t, err)

	fields := body["fields"].(map[string]interface{})
	assignee := fields["assignee"].(map[string]interface{})
	require.Equal(t, "alice", assignee["name"])
}

func TestUpdateFieldCustomFieldResolvedThroughCatalog(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /rest/api/2/field":
			io.WriteString(w, `[{"id":"summary","name":"Summary"},{"id":"customfield_10100","name":"Target Version/s"}]`)
		case "PUT /rest/api/2/issue/PROJ-1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	err := c.UpdateField(context.Background(), "PROJ-1", "Target Version/s", []string{"10", "20"})
	require.NoError(t, err)

	fields := body["fields"].(map[string]interface{})
	refs := fields["customfield_10100"].([]interface{})
	require.Len(t, refs, 2)
	first := refs[0].(map[string]interface{})
	require.Equal(t, "10", first["id"])
}

func TestUpdateFieldUnknownFieldIsFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"summary","name":"Summary"}]`)
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	err := c.UpdateField(context.Background(), "PROJ-1", "Benefit", "High")

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.Contains(t, fault.Detail, "Benefit")
}

func TestListVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /rest/api/2/project/PROJ/versions":
			io.WriteString(w, `[{"id":"10","name":"1.0"},{"id":"20","name":"2.0"}]`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	versions, err := c.ListVersions(context.Background(), "PROJ")
	require.NoError(t, err)
	require.Equal(t, []Version{{ID: "10", Name: "1.0"}, {ID: "20", Name: "2.0"}}, versions)
}

func TestAddVersion(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /rest/api/2/version":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewJiraClient(server.URL, "bot", "secret")
	require.NoError(t, c.AddVersion(context.Background(), "PROJ", "3.0"))
	require.Equal(t, "3.0", body["name"])
	require.Equal(t, "PROJ", body["project"])
}

func TestTransportErrorIsFaultWithoutStatus(t *testing.T) {
	c := NewJiraClient("http://127.0.0.1:1", "bot", "secret")
	_, err := c.FetchIssue(context.Background(), "PROJ-1")

	var fault *Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, 0, fault.StatusCode)
	require.False(t, fault.IsNotFound())
}

func TestBrowseBaseURLTrimsSlash(t *testing.T) {
	c := NewJiraClient("https://jira.example.com/", "bot", "secret")
	require.Equal(t, "https://jira.example.com", c.BrowseBaseURL())
}
