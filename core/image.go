package core

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultImageMIME is assumed when a payload's type cannot be determined.
const DefaultImageMIME = "image/png"

// DataURI renders a base64 payload as a data URI.
func DataURI(mimeType, b64 string) string {
	if mimeType == "" {
		mimeType = DefaultImageMIME
	}
	return "data:" + mimeType + ";base64," + b64
}

// SplitDataURI splits "data:<mime>;base64,<payload>" into its parts.
// ok is false when s is not a base64 data URI.
func SplitDataURI(s string) (mimeType, b64 string, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return "", "", false
	}
	head, payload, found := strings.Cut(s[len("data:"):], ",")
	if !found {
		return "", "", false
	}
	mt, enc, _ := strings.Cut(head, ";")
	if enc != "base64" {
		return "", "", false
	}
	return mt, payload, true
}

// StripDataURIPrefix returns the bare base64 payload of s,
// whether or not s carries a data URI prefix.
func StripDataURIPrefix(s string) string {
	if _, payload, ok := SplitDataURI(s); ok {
		return payload
	}
	return s
}

// DecodeBase64 decodes a payload in either the standard or URL-safe alphabet,
// with or without padding.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(StripDataURIPrefix(s))
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: payload is not valid base64", ErrDecode)
}

// DetectMIME sniffs the content type of raw image bytes.
func DetectMIME(data []byte) string {
	if len(data) == 0 {
		return DefaultImageMIME
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return DefaultImageMIME
	}
	// Drop parameters such as "; charset=binary".
	base, _, _ := strings.Cut(mt.String(), ";")
	return base
}

// ResolveMIME returns the reference image's declared type, sniffing the
// payload when none was given.
func (r ReferenceImage) ResolveMIME() string {
	if r.MimeType != "" {
		return r.MimeType
	}
	if mt, _, ok := SplitDataURI(r.Base64); ok && mt != "" {
		return mt
	}
	data, err := DecodeBase64(r.Base64)
	if err != nil {
		return DefaultImageMIME
	}
	return DetectMIME(data)
}

// Payload returns the reference image's bare base64 payload.
func (r ReferenceImage) Payload() string {
	return StripDataURIPrefix(r.Base64)
}

// DataURI renders the reference image as an inline data URI.
func (r ReferenceImage) DataURI() string {
	return DataURI(r.ResolveMIME(), r.Payload())
}

// Extension returns a file extension (with dot) suitable for the mime type.
func Extension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/png", "":
		return ".png"
	}
	if mt := mimetype.Lookup(mimeType); mt != nil {
		return mt.Extension()
	}
	return ".bin"
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsHTTPURL reports whether s is an absolute http(s) URL.
func IsHTTPURL(s string) bool {
	return isHTTPURL(s)
}
