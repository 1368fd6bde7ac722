// Package poll locates the result of a queued job by probing candidate URLs.
package poll

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers/internal/extract"
	"github.com/petal-labs/lumen/providers/internal/transport"
)

// DefaultInterval is the pause between rounds over the candidate list.
const DefaultInterval = 1200 * time.Millisecond

// DefaultImagePaths are the locations checked for finished images.
var DefaultImagePaths = []string{"images", "output.images", "data.images", "result.images"}

// statusPaths locate a job status in a poll response.
var statusPaths = []string{"status", "state", "data.status", "result.status"}

// AdvertisedURLPaths locate status or result URLs in a submission response.
var AdvertisedURLPaths = []string{
	"status_url", "response_url", "result_url",
	"statusUrl", "responseUrl", "resultUrl",
	"urls.status", "urls.result", "urls.get",
}

// Job tracks a submitted asynchronous job.
type Job struct {
	ID          string
	SubmittedAt time.Time
	Candidates  []string
	LastStatus  string
	Rounds      int
}

// Candidates returns the ordered URLs to probe for a job: six paths
// derived from base and id, then any advertised absolute URLs. Duplicates
// are dropped, keeping the first occurrence.
func Candidates(base, id string, advertised ...string) []string {
	base = strings.TrimRight(base, "/")
	var out []string
	seen := make(map[string]bool)
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	if id != "" && base != "" {
		for _, suffix := range []string{
			"/" + id,
			"/" + id + "/status",
			"/" + id + "/result",
			"/requests/" + id,
			"/requests/" + id + "/status",
			"/requests/" + id + "/result",
		} {
			add(base + suffix)
		}
	}
	for _, u := range advertised {
		if core.IsHTTPURL(u) {
			add(u)
		}
	}
	return out
}

// IsFailedStatus reports whether a status string signals failure or cancellation.
func IsFailedStatus(status string) bool {
	s := strings.ToUpper(status)
	return strings.Contains(s, "FAILED") || strings.Contains(s, "CANCEL")
}

// Poller probes candidates at a fixed cadence until images appear, the job
// fails or the deadline runs out.
type Poller struct {
	client     *transport.Client
	header     http.Header
	interval   time.Duration
	imagePaths []string
	logger     *zap.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the pause between rounds.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithHeader sets headers sent with every probe (typically auth).
func WithHeader(h http.Header) Option {
	return func(p *Poller) {
		p.header = h
	}
}

// WithImagePaths overrides where finished images are looked for.
func WithImagePaths(paths ...string) Option {
	return func(p *Poller) {
		if len(paths) > 0 {
			p.imagePaths = paths
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a poller that issues probes through client.
func New(client *transport.Client, opts ...Option) *Poller {
	p := &Poller{
		client:     client,
		interval:   DefaultInterval,
		imagePaths: DefaultImagePaths,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the configured cadence.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Poll probes job.Candidates in order each round and returns the images of
// the first JSON response that has any.
//
// Errors: ErrCanceled when ctx is cancelled, ErrJobFailed when a status
// reports failure, ErrJobNotFound when the deadline runs out first.
// Individual probe failures (network errors, non-2xx, non-JSON) only skip
// that candidate.
func (p *Poller) Poll(ctx context.Context, dl core.Deadline, job *Job) ([]extract.Image, error) {
	provider := p.client.Provider()
	if len(job.Candidates) == 0 {
		return nil, core.JobNotFoundError(provider, job.ID)
	}

	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	limiter.Allow()

	find := extract.ImagesAt(p.imagePaths...)
	for {
		if err := p.stop(ctx, dl, job); err != nil {
			return nil, err
		}
		job.Rounds++

		for _, u := range job.Candidates {
			if err := p.stop(ctx, dl, job); err != nil {
				return nil, err
			}

			resp, err := p.client.Get(ctx, dl, u, p.header)
			if err != nil {
				if errors.Is(err, core.ErrCanceled) || errors.Is(err, core.ErrTimeout) {
					if serr := p.stop(ctx, dl, job); serr != nil {
						return nil, serr
					}
					return nil, core.JobNotFoundError(provider, job.ID)
				}
				continue
			}
			if !resp.OK() {
				continue
			}
			doc, ok := extract.Parse(resp.Body)
			if !ok {
				continue
			}

			if status := extract.FirstString(doc, statusPaths...); status != "" {
				job.LastStatus = status
				if IsFailedStatus(status) {
					return nil, core.JobFailedError(provider, job.ID, status)
				}
			}
			if imgs := find(doc); len(imgs) > 0 {
				p.logger.Debug("job result found",
					zap.String("job_id", job.ID),
					zap.Int("round", job.Rounds),
					zap.Int("images", len(imgs)),
				)
				return imgs, nil
			}
		}

		p.logger.Debug("job pending",
			zap.String("job_id", job.ID),
			zap.Int("round", job.Rounds),
			zap.String("status", job.LastStatus),
		)
		if err := limiter.Wait(ctx); err != nil {
			if serr := p.stop(ctx, dl, job); serr != nil {
				return nil, serr
			}
			return nil, core.JobNotFoundError(provider, job.ID)
		}
	}
}

// stop reports why polling must end, or nil to continue.
func (p *Poller) stop(ctx context.Context, dl core.Deadline, job *Job) error {
	provider := p.client.Provider()
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.Canceled) && !dl.Expired() {
			return core.CanceledError(provider)
		}
		return core.JobNotFoundError(provider, job.ID)
	}
	if dl.Expired() {
		return core.JobNotFoundError(provider, job.ID)
	}
	return nil
}
