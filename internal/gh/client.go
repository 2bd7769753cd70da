package gh

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// TreeListing is a snapshot of one branch's Markdown files. Files is sorted
// lexicographically and contains no duplicates.
type TreeListing struct {
	Branch string
	Files  []string
}

// File is a Markdown file fetched at a point in time. SHA is the blob sha the
// content was read at; it is the optimistic-concurrency token for publishing.
type File struct {
	Name     string
	Path     string
	Markdown string
	SHA      string
}

// Rate is the provider's core rate-limit bucket.
type Rate struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Client talks to the GitHub API. The zero token on any call means
// unauthenticated access (lower rate ceiling).
type Client struct {
	hc *http.Client // optional; for tests
}

func NewClient() *Client {
	return &Client{}
}

// NewClientWithHTTPClient returns a client that uses the given http.Client for
// API calls (e.g. in tests).
func NewClientWithHTTPClient(hc *http.Client) *Client {
	return &Client{hc: hc}
}

func (c *Client) api(ctx context.Context, token string) *github.Client {
	if c.hc != nil {
		return github.NewClient(c.hc)
	}
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// DefaultBranch resolves the repository's default branch.
func (c *Client) DefaultBranch(ctx context.Context, token, owner, repo string) (string, error) {
	r, _, err := c.api(ctx, token).Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", classify(err, fmt.Sprintf("repository %s/%s", owner, repo))
	}
	return r.GetDefaultBranch(), nil
}

// ListMarkdown resolves branch (default branch when empty) to its tip commit,
// walks the full recursive tree, and returns every blob path ending in .md or
// .markdown, sorted and deduplicated.
func (c *Client) ListMarkdown(ctx context.Context, token, owner, repo, branch string) (*TreeListing, error) {
	if branch == "" {
		var err error
		branch, err = c.DefaultBranch(ctx, token, owner, repo)
		if err != nil {
			return nil, err
		}
	}
	tip, err := c.BranchHead(ctx, token, owner, repo, branch)
	if err != nil {
		return nil, err
	}
	tree, _, err := c.api(ctx, token).Git.GetTree(ctx, owner, repo, tip, true)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("tree %s/%s@%s", owner, repo, branch))
	}
	files := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" || !isMarkdownPath(e.GetPath()) {
			continue
		}
		files = append(files, e.GetPath())
	}
	slices.Sort(files)
	files = slices.Compact(files)
	return &TreeListing{Branch: branch, Files: files}, nil
}

func isMarkdownPath(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// GetFile fetches and decodes the blob at path on ref (default branch when
// empty). A path resolving to a directory yields NotAFileError.
func (c *Client) GetFile(ctx context.Context, token, owner, repo, path, ref string) (*File, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	fileContent, dirContent, _, err := c.api(ctx, token).Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("file %s/%s/%s", owner, repo, path))
	}
	if fileContent == nil || dirContent != nil {
		return nil, NotAFileError{Path: path}
	}
	markdown, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content of %s: %w", path, err)
	}
	return &File{
		Name:     fileContent.GetName(),
		Path:     fileContent.GetPath(),
		Markdown: markdown,
		SHA:      fileContent.GetSHA(),
	}, nil
}

// BranchHead resolves a branch name to its head commit sha.
func (c *Client) BranchHead(ctx context.Context, token, owner, repo, branch string) (string, error) {
	ref, _, err := c.api(ctx, token).Git.GetRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		return "", classify(err, fmt.Sprintf("branch %s/%s@%s", owner, repo, branch))
	}
	return ref.GetObject().GetSHA(), nil
}

// CreateBranch creates a new branch ref pointing at headSHA.
func (c *Client) CreateBranch(ctx context.Context, token, owner, repo, name, headSHA string) error {
	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + name),
		Object: &github.GitObject{SHA: github.String(headSHA)},
	}
	_, _, err := c.api(ctx, token).Git.CreateRef(ctx, owner, repo, ref)
	if err != nil {
		return classify(err, fmt.Sprintf("create branch %s/%s@%s", owner, repo, name))
	}
	return nil
}

// DeleteBranch removes a branch ref.
func (c *Client) DeleteBranch(ctx context.Context, token, owner, repo, name string) error {
	_, err := c.api(ctx, token).Git.DeleteRef(ctx, owner, repo, "heads/"+name)
	if err != nil {
		return classify(err, fmt.Sprintf("delete branch %s/%s@%s", owner, repo, name))
	}
	return nil
}

// CommitFile commits content to path on branch. sha is the blob sha the edit
// was based on; the provider rejects the write with a 409 if the file has
// moved past it, which is what prevents a lost update when two publishes race.
func (c *Client) CommitFile(ctx context.Context, token, owner, repo, path, branch, message string, content []byte, sha string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		SHA:     github.String(sha),
		Branch:  github.String(branch),
	}
	_, _, err := c.api(ctx, token).Repositories.UpdateFile(ctx, owner, repo, path, opts)
	if err != nil {
		return classify(err, fmt.Sprintf("commit %s/%s/%s", owner, repo, path))
	}
	return nil
}

// OpenPullRequest opens a PR from head into base and returns its URL and number.
func (c *Client) OpenPullRequest(ctx context.Context, token, owner, repo, title, body, head, base string) (string, int, error) {
	pr, _, err := c.api(ctx, token).PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(head),
		Base:  github.String(base),
	})
	if err != nil {
		return "", 0, classify(err, fmt.Sprintf("pull request %s/%s %s->%s", owner, repo, head, base))
	}
	return pr.GetHTMLURL(), pr.GetNumber(), nil
}

// RateLimit returns the caller's core rate-limit state.
func (c *Client) RateLimit(ctx context.Context, token string) (*Rate, error) {
	limits, _, err := c.api(ctx, token).RateLimit.Get(ctx)
	if err != nil {
		return nil, classify(err, "rate limit")
	}
	core := limits.GetCore()
	if core == nil {
		return nil, fmt.Errorf("rate limit: provider returned no core bucket")
	}
	return &Rate{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}
