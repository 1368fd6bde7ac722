package commands

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/petal-labs/lumen/core"
)

// loadReference reads an image file into a reference image. The MIME type
// is sniffed from content; dimensions are filled in when the format is
// decodable so size-aware providers can match the input.
func loadReference(path string) (core.ReferenceImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ReferenceImage{}, fmt.Errorf("reference %s: %w", path, err)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return core.ReferenceImage{}, fmt.Errorf("reference %s: not an image (%s)", path, mt.String())
	}

	ref := core.ReferenceImage{
		MimeType:    core.DetectMIME(data),
		Base64:      base64.StdEncoding.EncodeToString(data),
		DisplayName: filepath.Base(path),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		ref.Width = cfg.Width
		ref.Height = cfg.Height
	}
	return ref, nil
}

func loadReferences(paths []string, baseDir string) ([]core.ReferenceImage, error) {
	refs := make([]core.ReferenceImage, 0, len(paths))
	for _, p := range paths {
		if baseDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		ref, err := loadReference(p)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
