package core

import (
	"encoding/base64"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestSplitDataURI(t *testing.T) {
	tests := []struct {
		in       string
		wantMIME string
		wantB64  string
		wantOK   bool
	}{
		{"data:image/png;base64,AAAA", "image/png", "AAAA", true},
		{"data:image/jpeg;base64,", "image/jpeg", "", true},
		{"data:text/plain,hello", "", "", false},
		{"AAAA", "", "", false},
		{"https://cdn.example/x.png", "", "", false},
	}
	for _, tt := range tests {
		mt, b64, ok := SplitDataURI(tt.in)
		if ok != tt.wantOK || mt != tt.wantMIME || b64 != tt.wantB64 {
			t.Errorf("SplitDataURI(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, mt, b64, ok, tt.wantMIME, tt.wantB64, tt.wantOK)
		}
	}
}

func TestDataURIDefaultsMIME(t *testing.T) {
	if got := DataURI("", "AAAA"); got != "data:image/png;base64,AAAA" {
		t.Errorf("DataURI() = %q", got)
	}
}

func TestDecodeBase64Variants(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0xfe, 0x01}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		got, err := DecodeBase64(enc.EncodeToString(raw))
		if err != nil {
			t.Fatalf("DecodeBase64() error = %v", err)
		}
		if string(got) != string(raw) {
			t.Errorf("DecodeBase64() = %v, want %v", got, raw)
		}
	}
	if _, err := DecodeBase64("%%%"); err == nil {
		t.Error("DecodeBase64(invalid) should fail")
	}
}

func TestReferenceImageResolveMIME(t *testing.T) {
	png := base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name string
		ref  ReferenceImage
		want string
	}{
		{"declared", ReferenceImage{MimeType: "image/webp", Base64: png}, "image/webp"},
		{"sniffed", ReferenceImage{Base64: png}, "image/png"},
		{"data uri", ReferenceImage{Base64: "data:image/jpeg;base64," + png}, "image/jpeg"},
		{"unknown bytes", ReferenceImage{Base64: base64.StdEncoding.EncodeToString([]byte("hello"))}, DefaultImageMIME},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.ResolveMIME(); got != tt.want {
				t.Errorf("ResolveMIME() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
		"":           ".png",
	}
	for in, want := range tests {
		if got := Extension(in); got != want {
			t.Errorf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize("1024x768")
	if err != nil || s.Width != 1024 || s.Height != 768 {
		t.Errorf("ParseSize() = %v, %v", s, err)
	}
	for _, bad := range []string{"", "1024", "0x10", "axb"} {
		if _, err := ParseSize(bad); err == nil {
			t.Errorf("ParseSize(%q) should fail", bad)
		}
	}
}
