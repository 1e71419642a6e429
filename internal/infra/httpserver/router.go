package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/glowreader/internal/application/analysis"
	domain "github.com/bryanwahyu/glowreader/internal/domain/analysis"
	"github.com/bryanwahyu/glowreader/internal/middleware"
)

// PhotoURLHeader carries the archived photo URL when archiving is on.
const PhotoURLHeader = "X-Photo-Url"

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	Limiter        *middleware.RateLimiter // nil disables rate limiting
	Archive        domain.PhotoArchive     // nil disables archiving
	HealthCheckers map[string]middleware.HealthChecker
	Logger         *zap.Logger
}

type Router struct {
	svc       *appanalysis.Service
	archive   domain.PhotoArchive
	log       *zap.Logger
	maxUpload int64
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	r := &Router{svc: svc, archive: opts.Archive, log: opts.Logger, maxUpload: opts.MaxUploadBytes}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(opts.Logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, PhotoURLHeader},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		if opts.Limiter != nil {
			rt.Use(middleware.RateLimit(opts.Limiter))
		}
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		// older route name kept for existing front ends
		rt.Post("/vision", r.wrap(r.handleAnalyze))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks malformed input that never reached the gateway.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var bad *badRequest
		code := domain.CodeOf(err)
		if errors.As(err, &bad) {
			code = domain.CodeBadRequest
		}
		status := statusFor(code)
		msg := err.Error()
		if code == domain.CodeInternal {
			msg = "internal server error"
		}

		fields := []zap.Field{
			zap.String("request_id", middleware.RequestID(req.Context())),
			zap.String("code", code),
			zap.Error(err),
		}
		if status >= 500 {
			r.log.Error("request failed", fields...)
		} else {
			r.log.Warn("request rejected", fields...)
		}

		writeJSON(w, status, errorBody{Error: msg, Code: code})
	}
}

func statusFor(code string) int {
	switch code {
	case domain.CodeInvalidMode, domain.CodeMissingPhoto, domain.CodeInvalidPhoto, domain.CodeBadRequest:
		return http.StatusBadRequest
	case domain.CodeQuotaExceeded, domain.CodeRateLimited:
		return http.StatusTooManyRequests
	case domain.CodeProviderError, domain.CodeEmptyResult:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/analyze
// Form: mode, the mode's fields, photo (or image).
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := parseForm(req, r.maxUpload); err != nil {
		return err
	}

	mode := domain.Mode(strings.TrimSpace(req.PostFormValue("mode")))
	raw := make(map[string]string, len(req.PostForm))
	for k, v := range req.PostForm {
		if k == "mode" || len(v) == 0 {
			continue
		}
		raw[k] = v[0]
	}
	fields, err := middleware.CheckFields(raw)
	if err != nil {
		return &badRequest{msg: err.Error()}
	}

	photo, err := readPhoto(req, "photo", "image")
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	res, err := r.svc.Analyze(req.Context(), domain.Request{Mode: mode, Fields: fields, Photo: photo})
	if err != nil {
		r.countFailure(err)
		return err
	}

	if r.archive != nil && photo != nil {
		url, err := r.archive.Archive(req.Context(), mode, photo)
		if err != nil {
			r.log.Warn("photo archive failed",
				zap.String("request_id", middleware.RequestID(req.Context())),
				zap.Error(err))
		} else {
			middleware.IncrementPhotosArchived()
			w.Header().Set(PhotoURLHeader, url)
		}
	}

	writeJSON(w, http.StatusOK, res)
	return nil
}

func (r *Router) countFailure(err error) {
	middleware.IncrementAnalysesFailed()
	switch domain.CodeOf(err) {
	case domain.CodeQuotaExceeded:
		middleware.IncrementQuotaExceeded()
		middleware.IncrementProviderErrors()
	case domain.CodeProviderError:
		middleware.IncrementProviderErrors()
	}
}

func parseForm(req *http.Request, maxMemory int64) error {
	ct := req.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(ct, "multipart/form-data") {
		err = req.ParseMultipartForm(maxMemory)
	} else {
		err = req.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &badRequest{msg: fmt.Sprintf("upload too large (max %d bytes)", tooLarge.Limit)}
	}
	return &badRequest{msg: "could not parse form: " + err.Error()}
}

// readPhoto returns the first present file among names, or nil.
func readPhoto(req *http.Request, names ...string) (*domain.Photo, error) {
	if req.MultipartForm == nil {
		return nil, nil
	}
	for _, name := range names {
		f, hdr, err := req.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, &badRequest{msg: "could not read photo: " + err.Error()}
		}
		return loadPhoto(f, hdr)
	}
	return nil, nil
}

func loadPhoto(f multipart.File, hdr *multipart.FileHeader) (*domain.Photo, error) {
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &badRequest{msg: "could not read photo: " + err.Error()}
	}
	if len(data) == 0 {
		return nil, nil
	}
	mt := hdr.Header.Get("Content-Type")
	if mt == "" || mt == "application/octet-stream" {
		mt = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return &domain.Photo{Data: data, MimeType: mt, Filename: hdr.Filename}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
