package analysis

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Mode memilih template prompt dan bentuk form
type Mode string

const (
	ModeSkinAnalyzer Mode = "skin-analyzer"
	ModeMakeupArtist Mode = "makeup-artist"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{ModeSkinAnalyzer, ModeMakeupArtist}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// PhotoRequired reports whether a submission in this mode must carry a photo.
// Both modes analyse the face in the picture.
func (m Mode) PhotoRequired() bool {
	switch m {
	case ModeSkinAnalyzer, ModeMakeupArtist:
		return true
	default:
		return false
	}
}

// Photo is an uploaded image kept in memory for the duration of one request.
type Photo struct {
	Data     []byte
	MimeType string
	Filename string
}

// IsImage reports whether the photo declares an image/* content type.
func (p *Photo) IsImage() bool {
	return p != nil && strings.HasPrefix(strings.ToLower(p.MimeType), "image/")
}

// DataURL encodes the photo as a data: URL, the form browsers and OpenAI accept inline.
func (p *Photo) DataURL() string {
	if p == nil || len(p.Data) == 0 {
		return ""
	}
	return "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Request is one form submission.
type Request struct {
	Mode   Mode
	Fields map[string]string
	Photo  *Photo
}

// Concern is one row of the skin concerns breakdown.
type Concern struct {
	Name       string
	Percentage int
}

// Concerns keeps the provider's key order, unlike a Go map.
type Concerns []Concern

// UnmarshalJSON decodes a JSON object of name -> number preserving key order.
// Fractional values are rounded; out of range values are kept as given.
func (c *Concerns) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("skinConcerns: expected object, got %v", tok)
	}

	out := Concerns{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return fmt.Errorf("skinConcerns[%q]: %w", name, err)
		}
		f, err := num.Float64()
		if err != nil {
			return fmt.Errorf("skinConcerns[%q]: %w", name, err)
		}
		out = append(out, Concern{Name: name, Percentage: int(math.Round(f))})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// MarshalJSON writes the concerns back as an object in stored order.
func (c Concerns) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(row.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", row.Percentage)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Result is the structured analysis returned to the client.
type Result struct {
	AnalysisText string   `json:"analysisText"`
	SkinConcerns Concerns `json:"skinConcerns,omitempty"`
}
