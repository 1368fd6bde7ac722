// Package extract locates images and text in loosely specified provider JSON.
//
// Providers disagree about where results live and how an image is
// encoded. Rather than one permissive decoder, callers list ordered paths
// and the first match wins.
package extract

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/petal-labs/lumen/core"
)

// Image is an image reference found in a response.
// Data holds either a bare base64 payload or an http(s) URL.
type Image struct {
	MimeType string
	Data     string
}

// IsURL reports whether the image must be fetched.
func (i Image) IsURL() bool {
	return core.IsHTTPURL(i.Data)
}

// ImageExtractor pulls images out of a parsed document.
type ImageExtractor func(doc gjson.Result) []Image

var (
	urlPaths  = []string{"url", "image_url.url", "image_url", "imageUrl.url", "imageUrl", "source.url", "uri"}
	dataPaths = []string{"b64_json", "base64", "b64", "data", "source.data", "inlineData.data", "inline_data.data"}
	mimePaths = []string{"content_type", "contentType", "mime_type", "mimeType", "media_type", "source.media_type",
		"inlineData.mimeType", "inline_data.mime_type"}
)

// Parse parses body, returning ok=false when it is not valid JSON.
func Parse(body []byte) (gjson.Result, bool) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(body), true
}

// First runs extractors in order and returns the first non-empty result.
func First(doc gjson.Result, extractors ...ImageExtractor) []Image {
	for _, ex := range extractors {
		if imgs := ex(doc); len(imgs) > 0 {
			return imgs
		}
	}
	return nil
}

// ImagesAt returns an extractor reading the first non-empty array among paths.
func ImagesAt(paths ...string) ImageExtractor {
	return func(doc gjson.Result) []Image {
		arr := FirstArray(doc, paths...)
		if !arr.Exists() {
			return nil
		}
		return Images(arr)
	}
}

// Images normalizes every element of arr, dropping unrecognized ones.
func Images(arr gjson.Result) []Image {
	var out []Image
	arr.ForEach(func(_, v gjson.Result) bool {
		if img, ok := ImageRef(v); ok {
			out = append(out, img)
		}
		return true
	})
	return out
}

// FirstArray returns the first path that resolves to a non-empty array.
func FirstArray(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		r := doc.Get(p)
		if r.IsArray() && len(r.Array()) > 0 {
			return r
		}
	}
	return gjson.Result{}
}

// FirstString returns the first path that resolves to a non-blank scalar.
func FirstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		r := doc.Get(p)
		if !r.Exists() || r.IsObject() || r.IsArray() {
			continue
		}
		if s := strings.TrimSpace(r.String()); s != "" {
			return s
		}
	}
	return ""
}

// ImageRef normalizes one image reference: a URL string, a data URI, a bare
// base64 string, or an object carrying any of those under a known key.
func ImageRef(v gjson.Result) (Image, bool) {
	switch {
	case v.Type == gjson.String:
		return fromString(v.Str, "")
	case v.IsObject():
		mime := FirstString(v, mimePaths...)
		if u := FirstString(v, urlPaths...); u != "" {
			if img, ok := fromString(u, mime); ok {
				return img, true
			}
		}
		if d := FirstString(v, dataPaths...); d != "" {
			if img, ok := fromString(d, mime); ok {
				return img, true
			}
		}
	}
	return Image{}, false
}

func fromString(s, mime string) (Image, bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Image{}, false
	case core.IsHTTPURL(s):
		return Image{MimeType: mime, Data: s}, true
	case strings.HasPrefix(s, "data:"):
		mt, payload, ok := core.SplitDataURI(s)
		if !ok || payload == "" {
			return Image{}, false
		}
		if mt == "" {
			mt = mime
		}
		return Image{MimeType: mt, Data: payload}, true
	case looksLikeBase64(s):
		return Image{MimeType: mime, Data: s}, true
	}
	return Image{}, false
}

// looksLikeBase64 rejects short or obviously textual strings.
func looksLikeBase64(s string) bool {
	if len(s) < 16 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+', c == '/', c == '=', c == '-', c == '_', c == '\n', c == '\r':
		default:
			return false
		}
	}
	return true
}
