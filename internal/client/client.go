// Package client calls the analysis API over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

// ErrInFlight is returned by Session.Submit while an earlier submission is still running.
var ErrInFlight = errors.New("an analysis is already in progress")

const (
	photoURLHeader  = "X-Photo-Url"
	requestIDHeader = "X-Request-ID"
)

type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// New builds a client for the API at baseURL. No retries are configured.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return &Client{http: h, log: log}
}

// Reply is a successful analysis plus response metadata.
type Reply struct {
	Result    analysis.Result
	PhotoURL  string
	RequestID string
}

type wireResult struct {
	AnalysisText string            `json:"analysisText"`
	SkinConcerns analysis.Concerns `json:"skinConcerns"`
	// Result is the older single-string shape.
	Result string `json:"result"`
}

type wireError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Analyze submits one form. Server errors come back as the typed errors of
// the analysis package.
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (*Reply, error) {
	form := map[string]string{"mode": string(req.Mode)}
	for k, v := range req.Fields {
		if k != "mode" {
			form[k] = v
		}
	}

	var (
		ok  wireResult
		bad wireError
	)
	r := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		SetResult(&ok).
		SetError(&bad)
	if req.Photo != nil && len(req.Photo.Data) > 0 {
		name := req.Photo.Filename
		if name == "" {
			name = "photo"
		}
		r.SetMultipartField("photo", name, req.Photo.MimeType, bytes.NewReader(req.Photo.Data))
	}

	resp, err := r.Post("/api/analyze")
	if err != nil {
		return nil, fmt.Errorf("post analyze: %w", err)
	}

	if resp.IsError() {
		msg := bad.Error
		if msg == "" {
			msg = fmt.Sprintf("server error: %s", http.StatusText(resp.StatusCode()))
			if body := strings.TrimSpace(resp.String()); body != "" {
				msg += ". Details: " + body
			}
		}
		code := bad.Code
		if code == "" && resp.StatusCode() == http.StatusTooManyRequests {
			code = analysis.CodeQuotaExceeded
		}
		return nil, analysis.ErrorFromCode(code, msg)
	}

	res := analysis.Result{AnalysisText: ok.AnalysisText, SkinConcerns: ok.SkinConcerns}
	if res.AnalysisText == "" && ok.Result != "" {
		c.log.Warn("server answered with deprecated {result} shape")
		res.AnalysisText = ok.Result
	}
	if strings.TrimSpace(res.AnalysisText) == "" {
		return nil, &analysis.EmptyResultError{}
	}
	if req.Mode != analysis.ModeSkinAnalyzer {
		res.SkinConcerns = nil
	}

	return &Reply{
		Result:    res,
		PhotoURL:  resp.Header().Get(photoURLHeader),
		RequestID: resp.Header().Get(requestIDHeader),
	}, nil
}

// Session allows one outstanding submission at a time.
type Session struct {
	client   *Client
	inFlight atomic.Bool
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// Submit runs req unless another Submit on this session has not returned yet.
func (s *Session) Submit(ctx context.Context, req analysis.Request) (*Reply, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer s.inFlight.Store(false)
	return s.client.Analyze(ctx, req)
}

// Busy reports whether a submission is outstanding.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}
