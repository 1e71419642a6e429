package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/glowreader/internal/application/analysis"
	domain "github.com/bryanwahyu/glowreader/internal/domain/analysis"
	"github.com/bryanwahyu/glowreader/internal/infra/ai/prompt"
	"github.com/bryanwahyu/glowreader/internal/middleware"
)

var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")

type stubProvider struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(_ context.Context, prompt string, _ *domain.Photo) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.reply, s.err
}

type stubArchive struct {
	url string
	err error
	got *domain.Photo
}

func (a *stubArchive) Archive(_ context.Context, _ domain.Mode, p *domain.Photo) (string, error) {
	a.got = p
	return a.url, a.err
}

type upload struct {
	field, filename, contentType string
	data                         []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newHandler(p *stubProvider, opts Options) http.Handler {
	svc := appanalysis.NewService(p, prompt.MustNewBuilder(), nil)
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"http://localhost:5173"}
	}
	return NewRouter(svc, opts)
}

func post(h http.Handler, path string, body *bytes.Buffer, ct string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyze_Success(t *testing.T) {
	p := &stubProvider{reply: "```json\n{\"skinConcerns\":{\"Hydration\":85,\"Oiliness\":30},\"analysisText\":\"# Hi\"}\n```"}
	h := newHandler(p, Options{})

	body, ct := multipartBody(t,
		map[string]string{"mode": "skin-analyzer", "skinType": "Oily", "skinProblem": "Acne"},
		upload{field: "photo", filename: "me.png", contentType: "image/png", data: []byte("png")})
	rec := post(h, "/api/analyze", body, ct)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.JSONEq(t, `{"analysisText":"# Hi","skinConcerns":{"Hydration":85,"Oiliness":30}}`, rec.Body.String())
	assert.True(t, strings.Index(rec.Body.String(), "Hydration") < strings.Index(rec.Body.String(), "Oiliness"))
	assert.Equal(t, 1, p.calls)
}

func TestAnalyze_FieldValuesReachPromptVerbatim(t *testing.T) {
	p := &stubProvider{reply: `{"analysisText":"ok"}`}
	h := newHandler(p, Options{})
	long := strings.Repeat("sensitive around the nose ", 20)

	body, ct := multipartBody(t,
		map[string]string{"mode": "skin-analyzer", "skinType": "  Combination  ", "skinProblem": long},
		upload{field: "photo", filename: "me.jpg", contentType: "image/jpeg", data: jpegBytes})
	rec := post(h, "/api/analyze", body, ct)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, p.prompt, "  Combination  ")
	assert.Contains(t, p.prompt, long)
}

func TestAnalyze_VisionRouteAcceptsImageField(t *testing.T) {
	p := &stubProvider{reply: `{"analysisText":"## Look"}`}
	h := newHandler(p, Options{})

	body, ct := multipartBody(t,
		map[string]string{"mode": "makeup-artist", "eventType": "Wedding"},
		upload{field: "image", filename: "me.jpg", data: jpegBytes})
	rec := post(h, "/api/vision", body, ct)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"analysisText":"## Look"}`, rec.Body.String())
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	photo := upload{field: "photo", filename: "me.jpg", data: jpegBytes}
	cases := []struct {
		name     string
		provider *stubProvider
		fields   map[string]string
		files    []upload
		status   int
		code     string
		calls    int
	}{
		{"missing photo", &stubProvider{}, map[string]string{"mode": "skin-analyzer"}, nil, 400, domain.CodeMissingPhoto, 0},
		{"invalid mode", &stubProvider{}, map[string]string{"mode": "nails"}, []upload{photo}, 400, domain.CodeInvalidMode, 0},
		{"not an image", &stubProvider{}, map[string]string{"mode": "skin-analyzer"},
			[]upload{{field: "photo", filename: "cv.pdf", data: []byte("%PDF-1.4 ...")}}, 400, domain.CodeInvalidPhoto, 0},
		{"quota", &stubProvider{err: fmt.Errorf("%w: 429", domain.ErrQuotaExceeded)}, map[string]string{"mode": "skin-analyzer"}, []upload{photo}, 429, domain.CodeQuotaExceeded, 1},
		{"provider", &stubProvider{err: errors.New("boom")}, map[string]string{"mode": "skin-analyzer"}, []upload{photo}, 502, domain.CodeProviderError, 1},
		{"empty", &stubProvider{reply: `{"analysisText":""}`}, map[string]string{"mode": "makeup-artist"}, []upload{photo}, 502, domain.CodeEmptyResult, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHandler(c.provider, Options{})
			body, ct := multipartBody(t, c.fields, c.files...)
			rec := post(h, "/api/analyze", body, ct)

			assert.Equal(t, c.status, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, c.code, got.Code)
			assert.NotEmpty(t, got.Error)
			assert.Equal(t, c.calls, c.provider.calls)
		})
	}
}

func TestAnalyze_URLEncodedFormWithoutPhoto(t *testing.T) {
	p := &stubProvider{}
	h := newHandler(p, Options{})
	form := url.Values{"mode": {"skin-analyzer"}, "concern": {"acne"}}
	rec := post(h, "/api/analyze", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.CodeMissingPhoto, decodeError(t, rec).Code)
}

func TestAnalyze_UploadTooLarge(t *testing.T) {
	h := newHandler(&stubProvider{}, Options{MaxUploadBytes: 1024})
	body, ct := multipartBody(t, map[string]string{"mode": "skin-analyzer"},
		upload{field: "photo", filename: "big.jpg", data: bytes.Repeat([]byte{0xff}, 4096)})
	rec := post(h, "/api/analyze", body, ct)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.CodeBadRequest, decodeError(t, rec).Code)
}

func TestAnalyze_ArchivesPhoto(t *testing.T) {
	archive := &stubArchive{url: "http://minio:9000/glowreader-photos/skin-analyzer/x.jpg"}
	h := newHandler(&stubProvider{reply: `{"analysisText":"ok"}`}, Options{Archive: archive})

	body, ct := multipartBody(t, map[string]string{"mode": "skin-analyzer"}, upload{field: "photo", filename: "x.jpg", data: jpegBytes})
	rec := post(h, "/api/analyze", body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, archive.url, rec.Header().Get(PhotoURLHeader))
	require.NotNil(t, archive.got)
	assert.Equal(t, "image/jpeg", archive.got.MimeType)
}

func TestAnalyze_ArchiveFailureIsNotFatal(t *testing.T) {
	archive := &stubArchive{err: errors.New("minio down")}
	h := newHandler(&stubProvider{reply: `{"analysisText":"ok"}`}, Options{Archive: archive})

	body, ct := multipartBody(t, map[string]string{"mode": "skin-analyzer"}, upload{field: "photo", filename: "x.jpg", data: jpegBytes})
	rec := post(h, "/api/analyze", body, ct)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(PhotoURLHeader))
}

func TestAnalyze_RateLimited(t *testing.T) {
	h := newHandler(&stubProvider{}, Options{Limiter: middleware.NewRateLimiter(1, 0)})
	form := url.Values{"mode": {"skin-analyzer"}}

	first := post(h, "/api/analyze", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	second := post(h, "/api/analyze", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, domain.CodeRateLimited, decodeError(t, second).Code)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	h := newHandler(&stubProvider{}, Options{AllowedOrigins: []string{"https://glow.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://glow.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://glow.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHandler(&stubProvider{}, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"analyses_total"`)
}
