package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/bryanwahyu/glowreader/internal/application"
	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
	domain "github.com/bryanwahyu/glowreader/internal/domain/history"
	"github.com/bryanwahyu/glowreader/internal/render"
)

const (
	DefaultSlotName = "glowreader.history"
	summaryRunes    = 120
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Store is the capped, most-recent-first list of past analyses kept in one slot.
type Store struct {
	slot  domain.Slot
	name  string
	clock application.Clock
	log   *zap.Logger
}

func NewStore(slot domain.Slot, name string, clock application.Clock, log *zap.Logger) *Store {
	if name == "" {
		name = DefaultSlotName
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{slot: slot, name: name, clock: clock, log: log}
}

// NewEntry snapshots a finished analysis.
func (s *Store) NewEntry(mode analysis.Mode, inputs map[string]string, p render.Presentation, photo *analysis.Photo) domain.Entry {
	now := s.clock.Now()
	copied := make(map[string]string, len(inputs))
	for k, v := range inputs {
		copied[k] = v
	}
	return domain.Entry{
		ID:           now.UnixMilli(),
		Timestamp:    now.UTC().Format(timestampLayout),
		Mode:         mode,
		Inputs:       copied,
		SummaryText:  summarize(p),
		RenderedHTML: p.HTML(),
		ImageDataURL: photo.DataURL(),
	}
}

// Append puts e first and drops anything past MaxEntries. Errors are logged and
// returned; callers keep going without history. A slot that cannot be read is
// left untouched.
func (s *Store) Append(ctx context.Context, e domain.Entry) error {
	entries, err := s.load(ctx)
	if err != nil {
		s.log.Error("append history", zap.String("slot", s.name), zap.Error(err))
		return fmt.Errorf("load history: %w", err)
	}
	entries = append([]domain.Entry{e}, entries...)
	if len(entries) > domain.MaxEntries {
		entries = entries[:domain.MaxEntries]
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		s.log.Error("encode history", zap.Error(err))
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.slot.Save(ctx, s.name, payload); err != nil {
		s.log.Error("save history", zap.String("slot", s.name), zap.Error(err))
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// List returns entries most-recent-first. A missing or unreadable slot is an empty list.
func (s *Store) List(ctx context.Context) []domain.Entry {
	entries, err := s.load(ctx)
	if err != nil {
		s.log.Warn("load history", zap.String("slot", s.name), zap.Error(err))
		return []domain.Entry{}
	}
	return entries
}

// load only fails when the slot itself does; a corrupt payload reads as empty.
func (s *Store) load(ctx context.Context) ([]domain.Entry, error) {
	raw, err := s.slot.Load(ctx, s.name)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []domain.Entry{}, nil
	}
	var entries []domain.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Warn("corrupt history slot, ignoring", zap.String("slot", s.name), zap.Error(err))
		return []domain.Entry{}, nil
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

// Get finds one entry by id.
func (s *Store) Get(ctx context.Context, id int64) (domain.Entry, bool) {
	for _, e := range s.List(ctx) {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Entry{}, false
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.slot.Delete(ctx, s.name); err != nil {
		s.log.Error("clear history", zap.String("slot", s.name), zap.Error(err))
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Replay rebuilds the presentation of a stored entry without calling the provider.
func Replay(e domain.Entry) render.Presentation {
	return render.Replay(e.RenderedHTML, e.ImageDataURL)
}

func summarize(p render.Presentation) string {
	var parts []string
	for _, g := range p.Groups {
		if g.Kind == render.KindMarkdown || g.Kind == render.KindReplay {
			parts = append(parts, render.PlainText(g.HTML))
		}
	}
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if utf8.RuneCountInString(text) <= summaryRunes {
		return text
	}
	return string([]rune(text)[:summaryRunes])
}
