// Package refimage turns reference images into strings a provider accepts.
package refimage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
)

// Uploader hosts a reference image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, dl core.Deadline, img core.ReferenceImage) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, dl core.Deadline, img core.ReferenceImage) (string, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, dl core.Deadline, img core.ReferenceImage) (string, error) {
	return f(ctx, dl, img)
}

// Resolver uploads images one at a time, in order.
type Resolver struct {
	Uploader Uploader
	Progress core.ProgressFunc
	Logger   *zap.Logger
}

// Resolve returns one reference per image, preserving order. Each entry is
// the hosted URL when the upload succeeded, else an inline data URI.
//
// Cancellation and deadline expiry abort the batch; any other upload
// failure only affects its own image.
func (r Resolver) Resolve(ctx context.Context, dl core.Deadline, provider string, images []core.ReferenceImage) ([]string, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, core.ContextError(provider, err, dl)
		}
		if dl.Expired() {
			return nil, core.TimeoutError(provider, dl.Budget())
		}

		ref, uploaded, err := r.one(ctx, dl, img)
		if err != nil {
			return nil, err
		}
		if !uploaded && r.Uploader != nil {
			logger.Warn("reference upload failed, sending inline",
				zap.Int("index", i),
				zap.String("name", img.DisplayName),
			)
		}
		out = append(out, ref)
		r.Progress.Notify(core.ProgressEvent{
			Index:    i,
			Total:    len(images),
			Name:     img.DisplayName,
			Uploaded: uploaded,
		})
	}
	return out, nil
}

func (r Resolver) one(ctx context.Context, dl core.Deadline, img core.ReferenceImage) (string, bool, error) {
	if r.Uploader == nil {
		return img.DataURI(), false, nil
	}
	url, err := r.Uploader.Upload(ctx, dl, img)
	switch {
	case err == nil && url != "":
		return url, true, nil
	case isAbort(err):
		return "", false, err
	default:
		return img.DataURI(), false, nil
	}
}

func isAbort(err error) bool {
	return errors.Is(err, core.ErrCanceled) || errors.Is(err, core.ErrTimeout) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
