package analysis

import "context"

// Provider is the external generative-AI capability. Generate sends one prompt
// (and the photo, if any) and returns the raw reply text, expected to be JSON.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, photo *Photo) (string, error)
}

// PromptBuilder turns a mode and its form fields into the prompt text.
type PromptBuilder interface {
	Build(mode Mode, fields map[string]string) (string, error)
}

// PhotoArchive keeps a copy of uploaded photos. Optional; failures never fail an analysis.
type PhotoArchive interface {
	Archive(ctx context.Context, mode Mode, photo *Photo) (url string, err error)
}
