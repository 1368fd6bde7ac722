// Package core provides the Lumen gateway and the types shared by every
// image generation provider.
//
// # Gateway and Adapters
//
// The entry point is [Gateway]. It validates a [GenerationRequest], creates
// one [Deadline] for the whole call and hands a [Call] to the [Adapter]
// registered for the request's provider tag:
//
//	gw := core.NewGateway(
//	    core.WithAdapter(gemini.New(os.Getenv("GEMINI_API_KEY"))),
//	    core.WithAdapter(fal.New(os.Getenv("FAL_KEY"))),
//	    core.WithLogger(logger),
//	)
//	res, err := gw.Generate(ctx, &core.GenerationRequest{
//	    Prompt:   "a lighthouse at dusk, watercolor",
//	    Model:    "fal-ai/flux/dev",
//	    Provider: core.ProviderFal,
//	    Timeout:  90 * time.Second,
//	})
//
// Gateway is safe for concurrent use and keeps no state between calls.
// It never retries; see [Retry] for caller-side retries.
//
// # Deadlines and Cancellation
//
// The request's Timeout bounds every network step of the call, including
// reference uploads and queue polling. Each step derives its own timeout
// from [Deadline.Remaining]. Cancelling the context aborts the call at the
// next step boundary and yields [ErrCanceled]; running out of time yields
// [ErrTimeout].
//
// # Streaming
//
// [Gateway.Stream] delivers images on a channel as soon as they are found:
//
//	stream, err := gw.Stream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	for img := range stream.Ch {
//	    show(img)
//	}
//	if err := <-stream.Err; err != nil {
//	    return err
//	}
//
// # Errors
//
// Every error wraps exactly one of [ErrValidation], [ErrCanceled],
// [ErrTimeout], [ErrNetwork], [ErrHTTP], [ErrJobFailed], [ErrJobNotFound] or
// [ErrEmptyResult], and carries detail in a [*ProviderError]. Messages are
// available in English and Spanish; set GenerationRequest.Locale.
//
// # Telemetry
//
// Implement [TelemetryHook] to observe call start, phase transitions and
// completion. Hooks never receive credentials, prompts or image data.
package core
