package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/777mlb/markdown-viewer/internal/auth"
	"github.com/777mlb/markdown-viewer/internal/gh"
	"github.com/777mlb/markdown-viewer/internal/publish"
	"github.com/777mlb/markdown-viewer/internal/render"
)

// Reader lists and fetches Markdown files from the git provider. Implemented
// by *gh.Client; inject a fake in tests.
type Reader interface {
	ListMarkdown(ctx context.Context, token, owner, repo, branch string) (*gh.TreeListing, error)
	GetFile(ctx context.Context, token, owner, repo, path, ref string) (*gh.File, error)
	RateLimit(ctx context.Context, token string) (*gh.Rate, error)
}

// Publisher lands an edit as a pull request. Implemented by *publish.Publisher.
type Publisher interface {
	Publish(ctx context.Context, token string, req publish.Request) (*publish.Result, error)
}

type Handler struct {
	gh       Reader
	pub      Publisher
	renderer *render.Renderer
	log      *slog.Logger
	token    string // fallback token when the request carries none
}

func NewHandler(reader Reader, pub Publisher, renderer *render.Renderer, log *slog.Logger, fallbackToken string) *Handler {
	return &Handler{gh: reader, pub: pub, renderer: renderer, log: log, token: fallbackToken}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// writeError maps the provider/publisher error taxonomy onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict publish.ConflictError
	if errors.As(err, &conflict) {
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:            conflict.Error(),
			UpstreamSHA:      conflict.UpstreamSHA,
			UpstreamMarkdown: conflict.UpstreamMarkdown,
		})
		return
	}
	var noChange publish.NoChangeError
	if errors.As(err, &noChange) {
		badRequest(w, noChange.Error())
		return
	}
	var notAFile gh.NotAFileError
	if errors.As(err, &notAFile) {
		badRequest(w, notAFile.Error())
		return
	}
	var notFound gh.NotFoundError
	if errors.As(err, &notFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: notFound.Error()})
		return
	}
	var unauthorized gh.UnauthorizedError
	if errors.As(err, &unauthorized) {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Error: unauthorized.Error()})
		return
	}
	var rateLimited gh.RateLimitedError
	if errors.As(err, &rateLimited) {
		respondJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: rateLimited.Error()})
		return
	}
	h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Tree handles GET /tree?owner&repo&branch? — lists a branch's Markdown files.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, repo := q.Get("owner"), q.Get("repo")
	if owner == "" || repo == "" {
		badRequest(w, "owner and repo are required")
		return
	}
	token := auth.TokenFromRequest(r, h.token)
	listing, err := h.gh.ListMarkdown(r.Context(), token, owner, repo, q.Get("branch"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, TreeResponse{Branch: listing.Branch, Files: listing.Files})
}

// File handles GET /file?owner&repo&path&ref? — fetches one Markdown file.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, repo, path := q.Get("owner"), q.Get("repo"), q.Get("path")
	if owner == "" || repo == "" || path == "" {
		badRequest(w, "owner, repo and path are required")
		return
	}
	token := auth.TokenFromRequest(r, h.token)
	file, err := h.gh.GetFile(r.Context(), token, owner, repo, path, q.Get("ref"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, FileResponse{
		Markdown: file.Markdown,
		SHA:      file.SHA,
		Name:     file.Name,
		Path:     file.Path,
	})
}

// Publish handles POST /pr — lands an edit as a pull request.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Owner == "" || req.Repo == "" || req.Path == "" || req.BaseSHA == "" {
		badRequest(w, "owner, repo, path and baseSha are required")
		return
	}
	token := auth.TokenFromRequest(r, h.token)
	result, err := h.pub.Publish(r.Context(), token, publish.Request{
		Owner:      req.Owner,
		Repo:       req.Repo,
		Path:       req.Path,
		BaseBranch: req.BaseBranch,
		BaseSHA:    req.BaseSHA,
		Markdown:   req.Markdown,
		Title:      req.PRTitle,
		Body:       req.PRBody,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, PublishResponse{PRURL: result.PRURL, PRNumber: result.PRNumber})
}

// RateLimit handles GET /ratelimit — surfaces the provider's core bucket.
func (h *Handler) RateLimit(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r, h.token)
	rate, err := h.gh.RateLimit(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, RateLimitResponse{
		Remaining: rate.Remaining,
		Limit:     rate.Limit,
		Reset:     rate.Reset.Unix(),
		ResetDate: rate.Reset.UTC().Format(time.RFC3339),
	})
}

// Render handles POST /render — Markdown to HTML.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	html, err := h.renderer.HTML(req.Markdown)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, RenderResponse{HTML: html})
}

// Convert handles POST /convert — edited HTML back to Markdown.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	markdown, err := h.renderer.Markdown(req.HTML)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ConvertResponse{Markdown: markdown})
}
