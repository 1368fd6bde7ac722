package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
)

type generateFlags struct {
	prompt      string
	refs        []string
	size        string
	aspectRatio string
	numImages   int
	endpoint    string
	label       string
	outDir      string
	prefix      string
	retries     int
	stream      bool
	metricsFile string
}

// generateOutput is the --json document for a single call.
type generateOutput struct {
	Provider string       `json:"provider"`
	Model    string       `json:"model"`
	Text     string       `json:"text,omitempty"`
	Images   []savedImage `json:"images"`
}

func (a *App) newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate images from a prompt",
		Long: `Generate images from a text prompt and optional reference images.

Inline images are written to --out; providers that return hosted URLs
have them printed instead. Use "-" as the prompt to read it from stdin.

Examples:
  lumen generate "a lighthouse at dusk, watercolor" --provider fal --model fal-ai/flux/dev
  lumen generate "make it night" --ref day.png --provider gemini --model gemini-2.5-flash-image
  echo "a red bicycle" | lumen generate - --aspect 16:9 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runGenerate,
	}

	f := cmd.Flags()
	f.StringVarP(&a.gen.prompt, "prompt", "p", "", "prompt text (alternative to the positional argument)")
	f.StringArrayVarP(&a.gen.refs, "ref", "r", nil, "reference image file (repeatable)")
	f.StringVar(&a.gen.size, "size", "", "output size as WIDTHxHEIGHT")
	f.StringVar(&a.gen.aspectRatio, "aspect", "", "aspect ratio such as 16:9 (takes precedence over --size)")
	f.IntVarP(&a.gen.numImages, "num-images", "n", 0, "number of images for queue providers (1-4)")
	f.StringVar(&a.gen.endpoint, "endpoint", "", "override the provider endpoint URL")
	f.StringVar(&a.gen.label, "label", "", "model label attached to produced images")
	f.StringVarP(&a.gen.outDir, "out", "o", ".", "directory for saved images")
	f.StringVar(&a.gen.prefix, "prefix", "lumen", "file name prefix for saved images")
	f.IntVar(&a.gen.retries, "retries", 0, "retry transient failures this many times")
	f.BoolVar(&a.gen.stream, "stream", false, "save images as soon as each one arrives")
	f.StringVar(&a.gen.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file when done")

	return cmd
}

func (a *App) runGenerate(cmd *cobra.Command, args []string) error {
	prompt, err := a.readPrompt(args)
	if err != nil {
		return err
	}

	req, err := a.buildRequest(prompt)
	if err != nil {
		return err
	}
	refs, err := loadReferences(a.gen.refs, "")
	if err != nil {
		return &exitError{code: ExitValidation, err: err}
	}
	req.ReferenceImages = refs
	if !a.jsonOutput && len(refs) > 0 {
		req.Progress = a.progressPrinter()
	}

	if err := a.requireKey(req.Provider); err != nil {
		return err
	}
	gw, reg, err := a.buildGateway(a.gen.metricsFile != "")
	if err != nil {
		return err
	}
	defer a.writeMetrics(a.gen.metricsFile, reg)

	writer := newImageWriter(a.gen.outDir, a.gen.prefix)
	var saved []savedImage
	onImage := func(img core.GeneratedImage) error {
		s, err := writer.save(img)
		if err != nil {
			return err
		}
		saved = append(saved, s)
		if !a.jsonOutput {
			fmt.Fprintln(a.stdout, s.location())
		}
		return nil
	}

	res, err := a.generateWithRetry(cmd.Context(), gw, req, func(attempt int) {
		// A retried call starts over; forget what the failed attempt saved.
		saved = nil
		writer = newImageWriter(a.gen.outDir, a.gen.prefix)
	}, onImage)
	if err != nil {
		return withExitCode(err)
	}

	if !a.gen.stream {
		for _, img := range res.Images {
			if err := onImage(img); err != nil {
				return err
			}
		}
	}

	if a.jsonOutput {
		return writeJSON(a.stdout, generateOutput{
			Provider: string(req.Provider),
			Model:    string(req.Model),
			Text:     res.Text,
			Images:   saved,
		})
	}
	if res.Text != "" {
		fmt.Fprintln(a.stderr, strings.TrimSpace(res.Text))
	}
	return nil
}

// generateWithRetry runs one call, retrying transient failures up to
// --retries times. In stream mode onImage sees images as they arrive.
func (a *App) generateWithRetry(ctx context.Context, gw *core.Gateway, req *core.GenerationRequest, reset func(attempt int), onImage func(core.GeneratedImage) error) (*core.GenerationResult, error) {
	once := func(ctx context.Context, attempt int) (*core.GenerationResult, error) {
		if attempt > 0 {
			a.logger.Warn("retrying", zap.Int("attempt", attempt), zap.String("provider", string(req.Provider)))
			reset(attempt)
		}
		if !a.gen.stream {
			return gw.Generate(ctx, req)
		}
		return a.streamOnce(ctx, gw, req, onImage)
	}

	if a.gen.retries <= 0 {
		return once(ctx, 0)
	}
	policy := core.NewRetryPolicy(core.RetryConfig{MaxRetries: a.gen.retries})
	return core.Retry(ctx, policy, once)
}

func (a *App) streamOnce(ctx context.Context, gw *core.Gateway, req *core.GenerationRequest, onImage func(core.GeneratedImage) error) (*core.GenerationResult, error) {
	stream, err := gw.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	var writeErr error
	for img := range stream.Ch {
		if writeErr == nil {
			writeErr = onImage(img)
		}
	}
	if err := <-stream.Err; err != nil {
		return nil, err
	}
	if writeErr != nil {
		return nil, writeErr
	}
	return <-stream.Final, nil
}

func (a *App) readPrompt(args []string) (string, error) {
	prompt := a.gen.prompt
	if len(args) == 1 {
		prompt = args[0]
	}
	if prompt == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &exitError{code: ExitValidation, err: fmt.Errorf("a prompt is required")}
	}
	return prompt, nil
}

// buildRequest assembles a request from flags and config. Field checks are
// left to the gateway so CLI and library report the same errors.
func (a *App) buildRequest(prompt string) (*core.GenerationRequest, error) {
	req := &core.GenerationRequest{
		Prompt:      prompt,
		Provider:    core.ProviderID(a.provider),
		Model:       core.ModelID(a.model),
		Timeout:     a.timeout,
		NumImages:   a.gen.numImages,
		AspectRatio: a.gen.aspectRatio,
		Endpoint:    a.gen.endpoint,
		ModelLabel:  a.gen.label,
		Locale:      a.locale,
	}
	if req.Endpoint == "" {
		if pc := a.cfg.GetProvider(a.provider); pc != nil {
			req.Endpoint = pc.Endpoint
		}
	}
	if a.gen.size != "" {
		size, err := core.ParseSize(a.gen.size)
		if err != nil {
			return nil, &exitError{code: ExitValidation, err: err}
		}
		req.Size = &size
	}
	return req, nil
}

func (a *App) progressPrinter() core.ProgressFunc {
	return func(e core.ProgressEvent) {
		how := "uploaded"
		if !e.Uploaded {
			how = "inline"
		}
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("#%d", e.Index+1)
		}
		fmt.Fprintf(a.stderr, "reference %d/%d %s (%s)\n", e.Index+1, e.Total, name, how)
	}
}
