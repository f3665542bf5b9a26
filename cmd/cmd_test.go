package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-busfactor/internal/domain"
)

func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	reset := time.Now().Add(time.Hour).Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"resources": {
			"core": {"limit": 5000, "remaining": 4990, "reset": %d},
			"search": {"limit": 30, "remaining": 28, "reset": %d}
		}}`, reset, reset)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"rateLimit": {"limit": 5000, "remaining": 4321, "resetAt": "2030-01-01T00:00:00Z"}}}`)
	})
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "language:go", r.URL.Query().Get("q"))
		assert.Equal(t, "forks", r.URL.Query().Get("sort"))
		fmt.Fprint(w, `{"total_count": 3, "items": [
			{"name": "solo", "owner": {"login": "alice"}},
			{"name": "shared", "owner": {"login": "bob"}},
			{"name": "empty", "owner": {"login": "carol"}}
		]}`)
	})
	mux.HandleFunc("/repos/alice/solo/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login": "alice", "contributions": 90}, {"login": "dave", "contributions": 10}]`)
	})
	mux.HandleFunc("/repos/bob/shared/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login": "bob", "contributions": 50}, {"login": "erin", "contributions": 50}]`)
	})
	mux.HandleFunc("/repos/carol/empty/contributors", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("BUSFACTOR_API_TOKEN", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCalculateCmd(t *testing.T) {
	server := newFakeGitHub(t)

	out, err := execute(t, "calculate",
		"--api-url", server.URL,
		"--language", "go",
		"--project-count", "3",
		"--sort", "forks",
		"--max-contrib-req", "2",
		"--output", "json",
	)
	require.NoError(t, err)
	assert.Equal(t, `{"repository":"solo","contributor":"alice","ratio":0.9}`+"\n", out)
}

func TestCalculateCmd_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing language", args: []string{"calculate", "--project-count", "3"}},
		{name: "project count beyond search results", args: []string{"calculate", "-l", "go", "-p", "1001"}},
		{name: "threshold out of range", args: []string{"calculate", "-l", "go", "-p", "3", "--threshold", "1.2"}},
		{name: "unknown sort", args: []string{"calculate", "-l", "go", "-p", "3", "--sort", "watchers"}},
		{name: "unknown output", args: []string{"calculate", "-l", "go", "-p", "3", "-o", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, domain.KindConfig, domain.KindOf(err))
			assert.Empty(t, out)
		})
	}
}

func TestLimitsCmd(t *testing.T) {
	server := newFakeGitHub(t)

	out, err := execute(t, "limits", "--api-url", server.URL)
	require.NoError(t, err)
	for _, want := range []string{"core", "4990", "search", "28", "graphql", "4321"} {
		assert.Contains(t, out, want)
	}
}

func TestLimitsCmd_WithoutGraphQL(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate_limit" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message": "This endpoint requires you to be authenticated."}`)
			return
		}
		fmt.Fprintf(w, `{"resources": {
			"core": {"limit": 60, "remaining": 59, "reset": %d},
			"search": {"limit": 10, "remaining": 10, "reset": %d}
		}}`, reset, reset)
	}))
	t.Cleanup(server.Close)

	out, err := execute(t, "limits", "--api-url", server.URL, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "- resource: core\n  limit: 60\n  remaining: 59\n")
	assert.NotContains(t, out, "graphql")
}
