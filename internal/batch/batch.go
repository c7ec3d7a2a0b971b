// Package batch translates several documents at once: each job is uploaded,
// polled to a terminal state and downloaded, with a bounded number of jobs in
// flight. A failing job never stops the others.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/deepler/internal/deepl"
	"github.com/valpere/deepler/internal/poller"
)

// DefaultConcurrency is the number of jobs in flight when none is configured.
const DefaultConcurrency = 4

// Documents is the part of *deepl.Client a batch needs.
type Documents interface {
	poller.StatusChecker
	UploadDocument(ctx context.Context, opts *deepl.DocumentOptions) (*deepl.Document, error)
	DownloadDocument(ctx context.Context, doc deepl.Document, outPath string) (string, error)
}

// Recorder persists job progress. *store.Store satisfies it.
type Recorder interface {
	RecordUpload(ctx context.Context, opts *deepl.DocumentOptions, doc *deepl.Document) error
	RecordStatus(ctx context.Context, status *deepl.DocumentStatus, outputPath string) error
}

// Job is one document to translate. An empty Output selects OutputPath.
type Job struct {
	Options *deepl.DocumentOptions
	Output  string
}

// Result is the outcome of one job. Document is set once the upload succeeded,
// so a failed job can still be resumed by id.
type Result struct {
	Job        Job
	Document   *deepl.Document
	Status     *deepl.DocumentStatus
	OutputPath string
	Err        error
}

// Summary collects results in job order.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
}

// Errors returns the failures, each prefixed with its input file.
func (s *Summary) Errors() []error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Job.Options.FilePath(), r.Err))
		}
	}
	return errs
}

type Runner struct {
	docs        Documents
	recorder    Recorder
	concurrency int
	waitOpts    []poller.WaiterOption
	logger      zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithWaiterOptions configures the poller used for every job.
func WithWaiterOptions(opts ...poller.WaiterOption) Option {
	return func(r *Runner) { r.waitOpts = append(r.waitOpts, opts...) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func New(docs Documents, opts ...Option) *Runner {
	r := &Runner{
		docs:        docs,
		concurrency: DefaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes jobs and returns once every job has finished or ctx is done.
func (r *Runner) Run(ctx context.Context, jobs []Job) *Summary {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, job := range jobs {
		results[i].Job = job
		g.Go(func() error {
			r.runJob(ctx, &results[i])
			return nil
		})
	}
	g.Wait()

	summary := &Summary{Results: results}
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	r.logger.Info().Int("succeeded", summary.Succeeded).Int("failed", summary.Failed).Msg("batch finished")
	return summary
}

func (r *Runner) runJob(ctx context.Context, res *Result) {
	if err := ctx.Err(); err != nil {
		res.Err = err
		return
	}
	opts := res.Job.Options
	if opts == nil {
		res.Err = fmt.Errorf("job has no document options")
		return
	}

	doc, err := r.docs.UploadDocument(ctx, opts)
	if err != nil {
		res.Err = fmt.Errorf("failed to upload: %w", err)
		return
	}
	res.Document = doc
	if r.recorder != nil {
		if err := r.recorder.RecordUpload(ctx, opts, doc); err != nil {
			r.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("failed to record upload")
		}
	}

	w := poller.New(r.docs, append([]poller.WaiterOption{poller.WithLogger(r.logger)}, r.waitOpts...)...)
	w.OnStatus = func(s *deepl.DocumentStatus) { r.record(ctx, s, "") }

	status, err := w.Wait(ctx, *doc)
	res.Status = status
	if err != nil {
		res.Err = err
		return
	}

	out := res.Job.Output
	if out == "" {
		out = OutputPath(opts.FilePath(), opts.TargetLang().String())
	}
	path, err := r.docs.DownloadDocument(ctx, *doc, out)
	if err != nil {
		res.Err = fmt.Errorf("failed to download: %w", err)
		return
	}
	res.OutputPath = path
	r.record(ctx, status, path)
}

func (r *Runner) record(ctx context.Context, status *deepl.DocumentStatus, outputPath string) {
	if r.recorder == nil || status == nil {
		return
	}
	if err := r.recorder.RecordStatus(ctx, status, outputPath); err != nil {
		r.logger.Warn().Err(err).Str("document_id", status.ID).Msg("failed to record status")
	}
}

// OutputPath derives the translated file name, e.g. report.pdf -> report.de.pdf.
func OutputPath(input, targetLang string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + "." + strings.ToLower(targetLang) + ext
}
