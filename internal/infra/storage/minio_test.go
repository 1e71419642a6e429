package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

func TestObjectKey(t *testing.T) {
	cases := []struct {
		photo analysis.Photo
		want  string
	}{
		{analysis.Photo{Filename: "Selfie.JPEG", MimeType: "image/jpeg"}, "skin-analyzer/abc.jpeg"},
		{analysis.Photo{Filename: "blob", MimeType: "image/png"}, "skin-analyzer/abc.png"},
		{analysis.Photo{MimeType: "image/x-unknown"}, "skin-analyzer/abc"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ObjectKey(analysis.ModeSkinAnalyzer, "abc", &c.photo))
	}
}
