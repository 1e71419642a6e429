package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

// Service is the analysis gateway: validate, build the prompt, call the provider once, parse.
// It keeps no state between calls.
type Service struct {
	provider domain.Provider
	prompts  domain.PromptBuilder
	log      *zap.Logger
}

func NewService(provider domain.Provider, prompts domain.PromptBuilder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{provider: provider, prompts: prompts, log: log}
}

// Analyze runs one submission. No retries: every failure is terminal for this request.
func (s *Service) Analyze(ctx context.Context, req domain.Request) (domain.Result, error) {
	if err := Validate(req); err != nil {
		return domain.Result{}, err
	}

	prompt, err := s.prompts.Build(req.Mode, req.Fields)
	if err != nil {
		return domain.Result{}, err
	}

	s.log.Debug("calling provider",
		zap.String("provider", s.provider.Name()),
		zap.String("mode", string(req.Mode)),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("photo_bytes", photoSize(req.Photo)))

	raw, err := s.provider.Generate(ctx, prompt, req.Photo)
	if err != nil {
		return domain.Result{}, &domain.ProviderError{Provider: s.provider.Name(), Err: err}
	}

	res, err := ParseResult(raw)
	if err != nil {
		return domain.Result{}, &domain.ProviderError{Provider: s.provider.Name(), Err: err}
	}
	if strings.TrimSpace(res.AnalysisText) == "" {
		return domain.Result{}, &domain.EmptyResultError{}
	}
	if req.Mode != domain.ModeSkinAnalyzer {
		res.SkinConcerns = nil
	}

	s.log.Info("analysis complete",
		zap.String("mode", string(req.Mode)),
		zap.Int("analysis_chars", len(res.AnalysisText)),
		zap.Int("concerns", len(res.SkinConcerns)))
	return res, nil
}

// Validate checks mode then photo, before anything touches the network.
func Validate(req domain.Request) error {
	if !req.Mode.Valid() {
		return &domain.InvalidModeError{Mode: string(req.Mode)}
	}
	if req.Mode.PhotoRequired() && (req.Photo == nil || len(req.Photo.Data) == 0) {
		return &domain.MissingPhotoError{Mode: req.Mode}
	}
	if req.Photo != nil && len(req.Photo.Data) > 0 && !req.Photo.IsImage() {
		return &domain.InvalidPhotoError{MimeType: req.Photo.MimeType}
	}
	return nil
}

// ParseResult decodes the provider reply. Models sometimes wrap JSON in ``` fences.
func ParseResult(raw string) (domain.Result, error) {
	body := trimFences(raw)
	if body == "" {
		return domain.Result{}, errors.New("provider returned an empty reply")
	}
	var res domain.Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return domain.Result{}, fmt.Errorf("parse provider JSON: %w", err)
	}
	return res, nil
}

func trimFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func photoSize(p *domain.Photo) int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}
