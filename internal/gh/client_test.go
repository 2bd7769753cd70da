package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteTransport sends requests to baseURL instead of the original host
// (for the fake GitHub API).
type rewriteTransport struct {
	baseURL string
	base    http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.base == nil {
		t.base = http.DefaultTransport
	}
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, err
	}
	req = req.Clone(req.Context())
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return t.base.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTPClient(&http.Client{Transport: &rewriteTransport{baseURL: server.URL}})
}

func TestListMarkdown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ref":"refs/heads/main","object":{"sha":"tip123","type":"commit"}}`)
	})
	mux.HandleFunc("/repos/o/r/git/trees/tip123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		fmt.Fprint(w, `{"sha":"tip123","tree":[
			{"path":"zeta.md","type":"blob","sha":"s1"},
			{"path":"docs","type":"tree","sha":"s2"},
			{"path":"docs/guide.markdown","type":"blob","sha":"s3"},
			{"path":"img/logo.png","type":"blob","sha":"s4"},
			{"path":"notes/B.MD","type":"blob","sha":"s5"},
			{"path":"README.md","type":"blob","sha":"s6"}
		],"truncated":false}`)
	})
	c := newTestClient(t, mux)

	listing, err := c.ListMarkdown(context.Background(), "tk", "o", "r", "main")
	require.NoError(t, err)
	assert.Equal(t, "main", listing.Branch)
	assert.Equal(t, []string{"README.md", "docs/guide.markdown", "notes/B.MD", "zeta.md"}, listing.Files)
}

func TestListMarkdown_defaultBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"r","default_branch":"trunk"}`)
	})
	mux.HandleFunc("/repos/o/r/git/ref/heads/trunk", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ref":"refs/heads/trunk","object":{"sha":"tip9","type":"commit"}}`)
	})
	mux.HandleFunc("/repos/o/r/git/trees/tip9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sha":"tip9","tree":[{"path":"a.md","type":"blob","sha":"s1"}]}`)
	})
	c := newTestClient(t, mux)

	listing, err := c.ListMarkdown(context.Background(), "", "o", "r", "")
	require.NoError(t, err)
	assert.Equal(t, "trunk", listing.Branch)
	assert.Equal(t, []string{"a.md"}, listing.Files)
}

func TestListMarkdown_branchNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))

	_, err := c.ListMarkdown(context.Background(), "tk", "o", "r", "gone")
	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestGetFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/contents/docs/a.md", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		// "# Hello\n" base64-encoded
		fmt.Fprint(w, `{"type":"file","encoding":"base64","name":"a.md","path":"docs/a.md","sha":"abc123","content":"IyBIZWxsbwo="}`)
	})
	c := newTestClient(t, mux)

	file, err := c.GetFile(context.Background(), "tk", "o", "r", "docs/a.md", "main")
	require.NoError(t, err)
	assert.Equal(t, "a.md", file.Name)
	assert.Equal(t, "docs/a.md", file.Path)
	assert.Equal(t, "abc123", file.SHA)
	assert.Equal(t, "# Hello\n", file.Markdown)
}

func TestGetFile_directory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"x.md","path":"docs/x.md","sha":"s1"}]`)
	}))

	_, err := c.GetFile(context.Background(), "tk", "o", "r", "docs", "")
	var notAFile NotAFileError
	require.ErrorAs(t, err, &notAFile)
	assert.Equal(t, "docs", notAFile.Path)
}

func TestGetFile_unauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))

	_, err := c.GetFile(context.Background(), "bad", "o", "r", "a.md", "")
	var unauthorized UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
}

func TestGetFile_rateLimited(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	}))

	_, err := c.GetFile(context.Background(), "", "o", "r", "a.md", "")
	var rateLimited RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.False(t, rateLimited.Reset.IsZero())
}

func TestCreateBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/git/refs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refs/heads/docs/a-md-20240102-030405-abcd1234", body.Ref)
		assert.Equal(t, "head1", body.SHA)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"ref":"refs/heads/docs/a-md-20240102-030405-abcd1234","object":{"sha":"head1"}}`)
	})
	c := newTestClient(t, mux)

	err := c.CreateBranch(context.Background(), "tk", "o", "r", "docs/a-md-20240102-030405-abcd1234", "head1")
	require.NoError(t, err)
}

func TestCommitFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/contents/docs/a.md", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		var body struct {
			Message string `json:"message"`
			Content string `json:"content"` // base64
			SHA     string `json:"sha"`
			Branch  string `json:"branch"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "docs: update docs/a.md", body.Message)
		assert.Equal(t, "base1", body.SHA)
		assert.Equal(t, "scratch", body.Branch)
		fmt.Fprint(w, `{"content":{"sha":"new1"},"commit":{"sha":"c1"}}`)
	})
	c := newTestClient(t, mux)

	err := c.CommitFile(context.Background(), "tk", "o", "r", "docs/a.md", "scratch", "docs: update docs/a.md", []byte("new\n"), "base1")
	require.NoError(t, err)
}

func TestCommitFile_conflict(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message":"docs/a.md does not match"}`)
	}))

	err := c.CommitFile(context.Background(), "tk", "o", "r", "docs/a.md", "scratch", "m", []byte("x"), "stale")
	require.Error(t, err)
	assert.True(t, IsConflict(err), "409 from the commit call must stay detectable as a conflict")
}

func TestOpenPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Title string `json:"title"`
			Head  string `json:"head"`
			Base  string `json:"base"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "docs: update docs/a.md", body.Title)
		assert.Equal(t, "scratch", body.Head)
		assert.Equal(t, "main", body.Base)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":7,"html_url":"https://github.com/o/r/pull/7"}`)
	})
	c := newTestClient(t, mux)

	url, number, err := c.OpenPullRequest(context.Background(), "tk", "o", "r", "docs: update docs/a.md", "body", "scratch", "main")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/o/r/pull/7", url)
	assert.Equal(t, 7, number)
}

func TestDeleteBranch(t *testing.T) {
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/git/refs/heads/scratch", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.DeleteBranch(context.Background(), "tk", "o", "r", "scratch"))
	assert.True(t, deleted)
}

func TestRateLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resources":{"core":{"limit":5000,"remaining":4999,"reset":1700000000}}}`)
	})
	c := newTestClient(t, mux)

	rate, err := c.RateLimit(context.Background(), "tk")
	require.NoError(t, err)
	assert.Equal(t, 5000, rate.Limit)
	assert.Equal(t, 4999, rate.Remaining)
	assert.Equal(t, int64(1700000000), rate.Reset.Unix())
}
