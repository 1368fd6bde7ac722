package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/lumen/core"
)

type batchFlags struct {
	concurrency int
	outDir      string
	prefix      string
	metricsFile string
}

// batchFile is the YAML document accepted by "lumen batch".
type batchFile struct {
	Defaults batchJob   `yaml:"defaults"`
	Jobs     []batchJob `yaml:"jobs"`
}

type batchJob struct {
	Prompt      string        `yaml:"prompt"`
	Refs        []string      `yaml:"refs"`
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Label       string        `yaml:"label"`
	Endpoint    string        `yaml:"endpoint"`
	AspectRatio string        `yaml:"aspect_ratio"`
	Size        string        `yaml:"size"`
	NumImages   int           `yaml:"num_images"`
	Timeout     time.Duration `yaml:"timeout"`
}

// merge fills unset fields from defaults.
func (j batchJob) merge(d batchJob) batchJob {
	if j.Provider == "" {
		j.Provider = d.Provider
	}
	if j.Model == "" {
		j.Model = d.Model
	}
	if j.Endpoint == "" {
		j.Endpoint = d.Endpoint
	}
	if j.AspectRatio == "" && j.Size == "" {
		j.AspectRatio = d.AspectRatio
		j.Size = d.Size
	}
	if j.NumImages == 0 {
		j.NumImages = d.NumImages
	}
	if j.Timeout == 0 {
		j.Timeout = d.Timeout
	}
	if len(j.Refs) == 0 {
		j.Refs = d.Refs
	}
	return j
}

// batchResult is one line of batch output.
type batchResult struct {
	Slot     int          `json:"slot"`
	Provider string       `json:"provider"`
	Model    string       `json:"model"`
	Images   []savedImage `json:"images,omitempty"`
	Error    string       `json:"error,omitempty"`
	Kind     string       `json:"kind"`

	err error
}

func (a *App) newBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <jobs.yaml>",
		Short: "Run many generations concurrently",
		Long: `Run every job in a YAML file, several at a time.

Each job becomes one call; its position in the file is its slot index and
appears in the saved file names. Reference paths are relative to the file.

Example jobs.yaml:
  defaults:
    provider: fal
    model: fal-ai/flux/dev
  jobs:
    - prompt: a lighthouse at dusk
    - prompt: the same lighthouse at dawn
      refs: [lighthouse.png]
      provider: gemini
      model: gemini-2.5-flash-image`,
		Args: cobra.ExactArgs(1),
		RunE: a.runBatch,
	}

	f := cmd.Flags()
	f.IntVarP(&a.batch.concurrency, "concurrency", "c", 4, "maximum calls in flight")
	f.StringVarP(&a.batch.outDir, "out", "o", ".", "directory for saved images")
	f.StringVar(&a.batch.prefix, "prefix", "lumen", "file name prefix for saved images")
	f.StringVar(&a.batch.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file when done")

	return cmd
}

func loadBatch(path string) (*batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(bf.Jobs) == 0 {
		return nil, fmt.Errorf("%s: no jobs", path)
	}
	return &bf, nil
}

func (a *App) runBatch(cmd *cobra.Command, args []string) error {
	bf, err := loadBatch(args[0])
	if err != nil {
		return &exitError{code: ExitValidation, err: err}
	}
	baseDir := filepath.Dir(args[0])

	gw, reg, err := a.buildGateway(a.batch.metricsFile != "")
	if err != nil {
		return err
	}
	defer a.writeMetrics(a.batch.metricsFile, reg)

	ctx := cmd.Context()
	writer := newImageWriter(a.batch.outDir, a.batch.prefix)
	var writeMu sync.Mutex

	results := make([]batchResult, len(bf.Jobs))
	g := new(errgroup.Group)
	if a.batch.concurrency > 0 {
		g.SetLimit(a.batch.concurrency)
	}

	for i, job := range bf.Jobs {
		job = job.merge(bf.Defaults)
		g.Go(func() error {
			r := batchResult{Slot: i, Provider: job.Provider, Model: job.Model}
			res, err := a.runJob(ctx, gw, job, i, baseDir)
			if err == nil {
				writeMu.Lock()
				for _, img := range res.Images {
					s, werr := writer.save(img)
					if werr != nil {
						err = werr
						break
					}
					r.Images = append(r.Images, s)
				}
				writeMu.Unlock()
			}
			if err != nil {
				r.err = err
				r.Error = err.Error()
			}
			r.Kind = core.KindName(err)
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.err
			}
		}
	}

	if a.jsonOutput {
		if err := writeJSON(a.stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.err != nil {
				fmt.Fprintf(a.stdout, "[%d] failed: %v\n", r.Slot, r.err)
				continue
			}
			for _, s := range r.Images {
				fmt.Fprintf(a.stdout, "[%d] %s\n", r.Slot, s.location())
			}
		}
		fmt.Fprintf(a.stderr, "%d of %d jobs succeeded\n", len(results)-failed, len(results))
	}

	if firstErr != nil {
		return &exitError{
			code: exitCodeFor(firstErr),
			err:  fmt.Errorf("%d of %d jobs failed, first: %w", failed, len(results), firstErr),
		}
	}
	return nil
}

func (a *App) runJob(ctx context.Context, gw *core.Gateway, job batchJob, slot int, baseDir string) (*core.GenerationResult, error) {
	refs, err := loadReferences(job.Refs, baseDir)
	if err != nil {
		return nil, core.ValidationError(err.Error())
	}

	provider := job.Provider
	if provider == "" {
		provider = a.provider
	}
	model := job.Model
	if model == "" {
		model = a.model
	}
	timeout := job.Timeout
	if timeout == 0 {
		timeout = a.timeout
	}

	req := &core.GenerationRequest{
		Prompt:          job.Prompt,
		ReferenceImages: refs,
		Provider:        core.ProviderID(provider),
		Model:           core.ModelID(model),
		Timeout:         timeout,
		NumImages:       job.NumImages,
		AspectRatio:     job.AspectRatio,
		Endpoint:        job.Endpoint,
		ModelLabel:      job.Label,
		SlotIndex:       slot,
		Locale:          a.locale,
	}
	if job.Size != "" {
		size, err := core.ParseSize(job.Size)
		if err != nil {
			return nil, core.ValidationError(err.Error())
		}
		req.Size = &size
	}
	return gw.Generate(ctx, req)
}
