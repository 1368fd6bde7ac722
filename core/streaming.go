package core

import "context"

// ImageStream delivers images as a call discovers them.
//
// Channel Rules:
//   - All three channels are closed when the call ends
//   - Err emits at most one error
//   - Final emits exactly once on success, with every image also sent on Ch
//   - The producing goroutine never outlives the call's deadline
type ImageStream struct {
	Ch    <-chan GeneratedImage
	Err   <-chan error
	Final <-chan *GenerationResult
}

// DrainImages consumes a stream and returns its final result.
// Blocks until the stream completes or ctx ends.
func DrainImages(ctx context.Context, s *ImageStream) (*GenerationResult, error) {
	if s == nil {
		return nil, ValidationError("nil stream")
	}

	var seen []GeneratedImage
	for ch := s.Ch; ch != nil; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case img, ok := <-ch:
			if !ok {
				ch = nil
				continue
			}
			seen = append(seen, img)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err, ok := <-s.Err:
		if ok && err != nil {
			return nil, err
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-s.Final:
		if ok && res != nil {
			return res, nil
		}
	}
	return &GenerationResult{Images: seen}, nil
}
