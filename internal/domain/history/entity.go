package history

import "github.com/bryanwahyu/glowreader/internal/domain/analysis"

// MaxEntries is how many past analyses the local cache keeps.
const MaxEntries = 10

// Entry is one persisted past analysis, replayable without calling the provider again.
type Entry struct {
	ID           int64             `json:"id"`
	Timestamp    string            `json:"timestamp"`
	Mode         analysis.Mode     `json:"mode"`
	Inputs       map[string]string `json:"inputs"`
	SummaryText  string            `json:"summaryText"`
	RenderedHTML string            `json:"renderedHtml"`
	ImageDataURL string            `json:"imageDataUrl,omitempty"`
}
