package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/glowreader/internal/domain/analysis"
	"github.com/bryanwahyu/glowreader/internal/infra/ai/prompt"
)

type fakeProvider struct {
	reply  string
	err    error
	calls  int
	prompt string
	photo  *domain.Photo
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, p string, photo *domain.Photo) (string, error) {
	f.calls++
	f.prompt = p
	f.photo = photo
	return f.reply, f.err
}

func jpeg() *domain.Photo {
	return &domain.Photo{Data: []byte{0xff, 0xd8, 0xff}, MimeType: "image/jpeg", Filename: "face.jpg"}
}

func newService(p *fakeProvider) *Service {
	return NewService(p, prompt.MustNewBuilder(), nil)
}

func TestAnalyze_SkinReturnsTextAndConcerns(t *testing.T) {
	p := &fakeProvider{reply: `{"skinConcerns":{"Hydration":85,"Oiliness":30},"analysisText":"# Hi"}`}
	photo := jpeg()

	res, err := newService(p).Analyze(context.Background(), domain.Request{
		Mode:   domain.ModeSkinAnalyzer,
		Fields: map[string]string{"skinType": "Oily"},
		Photo:  photo,
	})
	require.NoError(t, err)

	assert.Equal(t, "# Hi", res.AnalysisText)
	assert.Equal(t, domain.Concerns{{Name: "Hydration", Percentage: 85}, {Name: "Oiliness", Percentage: 30}}, res.SkinConcerns)
	assert.Equal(t, 1, p.calls)
	assert.Contains(t, p.prompt, "Oily")
	assert.Same(t, photo, p.photo)
}

func TestAnalyze_MissingPhotoMakesNoCall(t *testing.T) {
	for _, mode := range domain.Modes {
		p := &fakeProvider{reply: `{"analysisText":"x"}`}
		_, err := newService(p).Analyze(context.Background(), domain.Request{Mode: mode})

		var missing *domain.MissingPhotoError
		require.ErrorAs(t, err, &missing, "mode %s", mode)
		assert.Equal(t, mode, missing.Mode)
		assert.Zero(t, p.calls)
	}
}

func TestAnalyze_InvalidModeCheckedFirst(t *testing.T) {
	p := &fakeProvider{}
	_, err := newService(p).Analyze(context.Background(), domain.Request{Mode: "hair-stylist"})

	var invalid *domain.InvalidModeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "hair-stylist", invalid.Mode)
	assert.Zero(t, p.calls)
}

func TestAnalyze_RejectsNonImageUpload(t *testing.T) {
	p := &fakeProvider{}
	_, err := newService(p).Analyze(context.Background(), domain.Request{
		Mode:  domain.ModeMakeupArtist,
		Photo: &domain.Photo{Data: []byte("%PDF"), MimeType: "application/pdf"},
	})

	var invalid *domain.InvalidPhotoError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "application/pdf", invalid.MimeType)
	assert.Zero(t, p.calls)
}

func TestAnalyze_ProviderFailureIsWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	p := &fakeProvider{err: cause}
	_, err := newService(p).Analyze(context.Background(), domain.Request{Mode: domain.ModeSkinAnalyzer, Photo: jpeg()})

	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "fake", perr.Provider)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, p.calls)
}

func TestAnalyze_QuotaStillMatchesSentinel(t *testing.T) {
	p := &fakeProvider{err: errors.Join(domain.ErrQuotaExceeded, errors.New("429"))}
	_, err := newService(p).Analyze(context.Background(), domain.Request{Mode: domain.ModeSkinAnalyzer, Photo: jpeg()})

	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	var perr *domain.ProviderError
	assert.ErrorAs(t, err, &perr)
}

func TestAnalyze_InvalidJSONIsProviderError(t *testing.T) {
	p := &fakeProvider{reply: "Sorry, I can't help with that."}
	_, err := newService(p).Analyze(context.Background(), domain.Request{Mode: domain.ModeSkinAnalyzer, Photo: jpeg()})

	var perr *domain.ProviderError
	assert.ErrorAs(t, err, &perr)
}

func TestAnalyze_EmptyAnalysisText(t *testing.T) {
	for _, reply := range []string{`{"analysisText":""}`, `{"skinConcerns":{"Pores":10}}`, `{"analysisText":"   "}`} {
		p := &fakeProvider{reply: reply}
		_, err := newService(p).Analyze(context.Background(), domain.Request{Mode: domain.ModeSkinAnalyzer, Photo: jpeg()})

		var empty *domain.EmptyResultError
		assert.ErrorAs(t, err, &empty, reply)
	}
}

func TestAnalyze_MakeupDropsConcerns(t *testing.T) {
	p := &fakeProvider{reply: `{"skinConcerns":{"Pores":10},"analysisText":"## Look"}`}
	res, err := newService(p).Analyze(context.Background(), domain.Request{Mode: domain.ModeMakeupArtist, Photo: jpeg()})
	require.NoError(t, err)

	assert.Nil(t, res.SkinConcerns)
	assert.Equal(t, "## Look", res.AnalysisText)
}

func TestParseResult_StripsCodeFences(t *testing.T) {
	cases := []string{
		"```json\n{\"analysisText\":\"ok\"}\n```",
		"```\n{\"analysisText\":\"ok\"}\n```",
		"  {\"analysisText\":\"ok\"}  ",
	}
	for _, raw := range cases {
		res, err := ParseResult(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "ok", res.AnalysisText)
	}
}

func TestParseResult_KeepsOutOfRangeConcerns(t *testing.T) {
	res, err := ParseResult(`{"analysisText":"x","skinConcerns":{"Redness":120.4,"Wrinkles":-3}}`)
	require.NoError(t, err)
	assert.Equal(t, domain.Concerns{{Name: "Redness", Percentage: 120}, {Name: "Wrinkles", Percentage: -3}}, res.SkinConcerns)
}
