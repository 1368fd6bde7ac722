package core

// ProgressEvent describes one reference image as it is prepared for upload.
type ProgressEvent struct {
	Index    int    // zero-based position of the image
	Total    int    // number of reference images in the request
	Name     string // display name, may be empty
	Uploaded bool   // false when the image fell back to inline data
}

// ProgressFunc receives upload progress. Calls are made sequentially
// from the goroutine running the generation.
type ProgressFunc func(ProgressEvent)

// Notify invokes f if it is non-nil.
func (f ProgressFunc) Notify(e ProgressEvent) {
	if f != nil {
		f(e)
	}
}
