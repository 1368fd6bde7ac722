package fal

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers/internal/extract"
	"github.com/petal-labs/lumen/providers/internal/normalize"
	"github.com/petal-labs/lumen/providers/internal/transport"
)

// CDNUploader hosts reference images on FAL storage: it initiates an upload,
// PUTs the bytes to the returned URL and hands back the public file URL.
type CDNUploader struct {
	http        *transport.Client
	initiateURL string
	header      http.Header
}

// NewCDNUploader creates an uploader. header carries the auth header.
func NewCDNUploader(client *transport.Client, initiateURL string, header http.Header) *CDNUploader {
	return &CDNUploader{http: client, initiateURL: initiateURL, header: header}
}

type initiateRequest struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

// Upload hosts one image and returns its public URL.
func (u *CDNUploader) Upload(ctx context.Context, dl core.Deadline, img core.ReferenceImage) (string, error) {
	provider := u.http.Provider()
	data, err := core.DecodeBase64(img.Base64)
	if err != nil {
		return "", core.ValidationError("reference image is not valid base64")
	}
	mime := img.ResolveMIME()

	resp, err := u.http.PostJSON(ctx, dl, u.initiateURL, u.header, initiateRequest{
		ContentType: mime,
		FileName:    fileName(img, mime),
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", normalize.HTTPError(provider, resp.Status, resp.Header, resp.Body)
	}
	doc, ok := extract.Parse(resp.Body)
	if !ok {
		return "", core.DecodeError(provider, errors.New("upload initiation response is not JSON"))
	}
	uploadURL := extract.FirstString(doc, "upload_url", "uploadUrl")
	fileURL := extract.FirstString(doc, "file_url", "fileUrl", "url")
	if uploadURL == "" || fileURL == "" {
		return "", core.DecodeError(provider, errors.New("upload initiation response lacks upload_url or file_url"))
	}

	put := http.Header{}
	put.Set("Content-Type", mime)
	resp, err = u.http.Do(ctx, dl, transport.Request{
		Method: http.MethodPut,
		URL:    uploadURL,
		Header: put,
		Body:   data,
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", normalize.HTTPError(provider, resp.Status, resp.Header, resp.Body)
	}
	return fileURL, nil
}

func fileName(img core.ReferenceImage, mime string) string {
	if img.DisplayName != "" {
		return img.DisplayName
	}
	return uuid.NewString() + core.Extension(mime)
}
