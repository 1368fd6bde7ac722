// Package providers holds the adapter registry and, in subpackages, one
// adapter per backend family:
//
//   - providers/gemini: synchronous JSON, images inline in the response
//   - providers/openrouter: synchronous chat completions with image output
//   - providers/fal: queue submission followed by polling
//
// Importing a provider package registers its factory:
//
//	import _ "github.com/petal-labs/lumen/providers/fal"
//
//	adapter, err := providers.Create(core.ProviderFal, providers.Settings{APIKey: key})
//
// Adapters are safe for concurrent calls and never retry.
package providers
