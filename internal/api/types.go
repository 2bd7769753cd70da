package api

type TreeResponse struct {
	Branch string   `json:"branch"`
	Files  []string `json:"files"`
}

type FileResponse struct {
	Markdown string `json:"markdown"`
	SHA      string `json:"sha"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

type PublishRequest struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	Path       string `json:"path"`
	BaseBranch string `json:"baseBranch"`
	BaseSHA    string `json:"baseSha"`
	Markdown   string `json:"markdown"`
	PRTitle    string `json:"prTitle"`
	PRBody     string `json:"prBody"`
}

type PublishResponse struct {
	PRURL    string `json:"prUrl"`
	PRNumber int    `json:"prNumber"`
}

type RateLimitResponse struct {
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
	Reset     int64  `json:"reset"`
	ResetDate string `json:"resetDate"`
}

type RenderRequest struct {
	Markdown string `json:"markdown"`
}

type RenderResponse struct {
	HTML string `json:"html"`
}

type ConvertRequest struct {
	HTML string `json:"html"`
}

type ConvertResponse struct {
	Markdown string `json:"markdown"`
}

// ErrorResponse is the error envelope for every endpoint. The upstream fields
// are set only on publish conflicts, carrying the fresh state for a re-base.
type ErrorResponse struct {
	Error            string `json:"error"`
	UpstreamSHA      string `json:"upstreamSha,omitempty"`
	UpstreamMarkdown string `json:"upstreamMarkdown,omitempty"`
}
