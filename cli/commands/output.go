package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/petal-labs/lumen/core"
)

// savedImage describes where one generated image ended up.
type savedImage struct {
	Slot     int    `json:"slot"`
	Index    int    `json:"index"`
	MimeType string `json:"mime_type"`
	Model    string `json:"model,omitempty"`
	Path     string `json:"path,omitempty"`
	URL      string `json:"url,omitempty"`
}

// imageWriter saves inline images under dir and passes URLs through.
// Indexes are counted per slot.
type imageWriter struct {
	dir    string
	prefix string
	counts map[int]int
}

func newImageWriter(dir, prefix string) *imageWriter {
	if prefix == "" {
		prefix = "lumen"
	}
	return &imageWriter{dir: dir, prefix: prefix, counts: make(map[int]int)}
}

func (w *imageWriter) save(img core.GeneratedImage) (savedImage, error) {
	idx := w.counts[img.SlotIndex]
	w.counts[img.SlotIndex] = idx + 1

	out := savedImage{
		Slot:     img.SlotIndex,
		Index:    idx,
		MimeType: img.MimeType,
		Model:    img.ModelLabel,
	}
	if img.IsURL() {
		out.URL = img.Data
		return out, nil
	}

	data, err := core.DecodeBase64(img.Data)
	if err != nil {
		return out, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return out, err
	}
	name := fmt.Sprintf("%s-%d-%d%s", w.prefix, img.SlotIndex, idx, core.Extension(img.MimeType))
	out.Path = filepath.Join(w.dir, name)
	if err := os.WriteFile(out.Path, data, 0o644); err != nil {
		return out, err
	}
	return out, nil
}

func (s savedImage) location() string {
	if s.Path != "" {
		return s.Path
	}
	return s.URL
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
