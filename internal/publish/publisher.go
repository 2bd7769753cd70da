// Package publish lands a Markdown edit as a pull request against the source
// repository, guarded by an optimistic-concurrency check on the blob sha the
// edit was based on.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/777mlb/markdown-viewer/internal/gh"
)

// Provider is the port the publisher depends on to talk to the git hosting
// provider. Implemented by *gh.Client; inject a fake in tests.
type Provider interface {
	DefaultBranch(ctx context.Context, token, owner, repo string) (string, error)
	GetFile(ctx context.Context, token, owner, repo, path, ref string) (*gh.File, error)
	BranchHead(ctx context.Context, token, owner, repo, branch string) (string, error)
	CreateBranch(ctx context.Context, token, owner, repo, name, headSHA string) error
	CommitFile(ctx context.Context, token, owner, repo, path, branch, message string, content []byte, sha string) error
	OpenPullRequest(ctx context.Context, token, owner, repo, title, body, head, base string) (string, int, error)
	DeleteBranch(ctx context.Context, token, owner, repo, name string) error
}

// Request is an edit proposal tied to the baseline it was edited against.
type Request struct {
	Owner      string
	Repo       string
	Path       string
	BaseBranch string // empty means the repository's default branch
	BaseSHA    string
	Markdown   string
	Title      string // empty means a default title
	Body       string // empty means a default body
}

// Result identifies the opened pull request.
type Result struct {
	PRURL    string
	PRNumber int
}

// ConflictError is returned when the upstream file changed since the baseline
// was fetched. It carries the fresh state so the caller can re-base.
type ConflictError struct {
	UpstreamSHA      string
	UpstreamMarkdown string
}

func (e ConflictError) Error() string {
	return "upstream file changed since the edit baseline was fetched"
}

// NoChangeError is returned when the submitted Markdown is byte-identical to
// the baseline, which would produce an empty pull request.
type NoChangeError struct {
	Path string
}

func (e NoChangeError) Error() string {
	return fmt.Sprintf("no changes to publish for %q", e.Path)
}

// Publisher coordinates the branch/commit/PR sequence. Safe for concurrent
// use; it holds no per-request state.
type Publisher struct {
	provider Provider
	log      *slog.Logger

	// overridable for deterministic tests
	now      func() time.Time
	newToken func() string
}

func New(provider Provider, log *slog.Logger) *Publisher {
	return &Publisher{
		provider: provider,
		log:      log,
		now:      time.Now,
		newToken: shortToken,
	}
}

// Publish runs the optimistic-concurrency check and, on a clean baseline,
// lands req as a pull request: resolve base branch, verify the upstream sha
// still matches req.BaseSHA, create a scratch branch at the base head, commit
// the new Markdown with the baseline sha as the required parent blob, and open
// the PR. A stale baseline yields ConflictError with the fresh upstream state
// and performs no writes. If the branch was created but a later step fails,
// the branch is best-effort deleted before the error is returned.
func (p *Publisher) Publish(ctx context.Context, token string, req Request) (*Result, error) {
	base := req.BaseBranch
	if base == "" {
		var err error
		base, err = p.provider.DefaultBranch(ctx, token, req.Owner, req.Repo)
		if err != nil {
			return nil, err
		}
	}

	current, err := p.provider.GetFile(ctx, token, req.Owner, req.Repo, req.Path, base)
	if err != nil {
		return nil, err
	}
	if current.SHA != req.BaseSHA {
		return nil, ConflictError{UpstreamSHA: current.SHA, UpstreamMarkdown: current.Markdown}
	}
	if gh.BlobSHA([]byte(req.Markdown)) == current.SHA {
		return nil, NoChangeError{Path: req.Path}
	}

	head, err := p.provider.BranchHead(ctx, token, req.Owner, req.Repo, base)
	if err != nil {
		return nil, err
	}

	branch := BranchName(req.Path, p.now(), p.newToken())
	if err := p.provider.CreateBranch(ctx, token, req.Owner, req.Repo, branch, head); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("docs: update %s", req.Path)
	if err := p.provider.CommitFile(ctx, token, req.Owner, req.Repo, req.Path, branch, message, []byte(req.Markdown), current.SHA); err != nil {
		p.cleanup(ctx, token, req, branch)
		if gh.IsConflict(err) {
			// A second writer got between the check and the commit. Re-fetch
			// so the conflict payload carries the fresh state.
			return nil, p.freshConflict(ctx, token, req, base)
		}
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("docs: update %s", req.Path)
	}
	body := req.Body
	if body == "" {
		body = fmt.Sprintf("Update `%s` (edited against blob `%s`).", req.Path, req.BaseSHA)
	}
	url, number, err := p.provider.OpenPullRequest(ctx, token, req.Owner, req.Repo, title, body, branch, base)
	if err != nil {
		p.cleanup(ctx, token, req, branch)
		return nil, err
	}

	p.log.Info("published edit as pull request",
		"owner", req.Owner, "repo", req.Repo, "path", req.Path,
		"branch", branch, "pr", number)
	return &Result{PRURL: url, PRNumber: number}, nil
}

// cleanup deletes a scratch branch left behind by a failed publish. Failure
// here is logged and otherwise swallowed; the original error matters more.
func (p *Publisher) cleanup(ctx context.Context, token string, req Request, branch string) {
	if err := p.provider.DeleteBranch(ctx, token, req.Owner, req.Repo, branch); err != nil {
		p.log.Warn("orphaned branch left after failed publish",
			"owner", req.Owner, "repo", req.Repo, "branch", branch, "error", err)
	}
}

func (p *Publisher) freshConflict(ctx context.Context, token string, req Request, base string) error {
	fresh, err := p.provider.GetFile(ctx, token, req.Owner, req.Repo, req.Path, base)
	if err != nil {
		p.log.Warn("could not re-fetch upstream state after commit conflict",
			"owner", req.Owner, "repo", req.Repo, "path", req.Path, "error", err)
		return ConflictError{}
	}
	return ConflictError{UpstreamSHA: fresh.SHA, UpstreamMarkdown: fresh.Markdown}
}
