// Package pipeline fetches documents, extracts one record per document and
// hands the records to a sink.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/foomo/tagsoup"
	"github.com/foomo/tagsoup/extract"
	"github.com/foomo/tagsoup/record"
	"github.com/foomo/tagsoup/source"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Fetcher interface {
	Fetch(ctx context.Context, location string) (*source.Markup, error)
}

type Stats struct {
	Documents int
	Records   int
	Failed    int
}

type Pipeline struct {
	fetcher      Fetcher
	extractor    *extract.Extractor
	sink         record.Sink
	logger       *zap.Logger
	parseOptions []tagsoup.Option
	failFast     bool
	registerer   prometheus.Registerer
	metrics      *metrics
}

type Option func(p *Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithParseOptions(opts ...tagsoup.Option) Option {
	return func(p *Pipeline) {
		p.parseOptions = append(p.parseOptions, opts...)
	}
}

// WithFailFast stops the run at the first document, that fails
func WithFailFast() Option {
	return func(p *Pipeline) {
		p.failFast = true
	}
}

// WithRegisterer registers the pipeline metrics
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pipeline) {
		p.registerer = reg
	}
}

func New(fetcher Fetcher, extractor *extract.Extractor, sink record.Sink, opts ...Option) (p *Pipeline, err error) {
	p = &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		sink:      sink,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.metrics, err = newMetrics(p.registerer)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Process one location into a record
func (p *Pipeline) Process(ctx context.Context, location string) (*record.Record, error) {
	m, errFetch := p.fetcher.Fetch(ctx, location)
	if errFetch != nil {
		p.metrics.documents.WithLabelValues(statusFetchError).Inc()
		return nil, errFetch
	}
	p.metrics.bytes.Add(float64(len(m.Body)))
	start := time.Now()
	doc, errParse := tagsoup.ParseBytes(m.Body, m.ContentType, p.parseOptions...)
	p.metrics.parseDuration.Observe(time.Since(start).Seconds())
	if errParse != nil {
		p.metrics.documents.WithLabelValues(statusExtractError).Inc()
		return nil, errParse
	}
	r, errExtract := p.extractor.Extract(doc, m.Location)
	if errExtract != nil {
		p.metrics.documents.WithLabelValues(statusExtractError).Inc()
		return nil, errExtract
	}
	p.metrics.documents.WithLabelValues(statusOK).Inc()
	return r, nil
}

// Run processes locations in order. Failing documents are logged and
// skipped unless the pipeline fails fast, sink errors always end the run.
func (p *Pipeline) Run(ctx context.Context, locations []string) (stats Stats, err error) {
	defer func() {
		if errFlush := p.sink.Flush(); errFlush != nil && err == nil {
			err = errFlush
		}
	}()
	for _, location := range locations {
		if errCtx := ctx.Err(); errCtx != nil {
			return stats, errCtx
		}
		stats.Documents++
		r, errProcess := p.Process(ctx, location)
		if errProcess != nil {
			stats.Failed++
			p.logger.Warn("could not process document", zap.String("location", location), zap.Error(errProcess))
			if p.failFast {
				return stats, fmt.Errorf("%s: %w", location, errProcess)
			}
			continue
		}
		if errWrite := p.sink.Write(r); errWrite != nil {
			return stats, fmt.Errorf("could not write record for %s: %w", location, errWrite)
		}
		stats.Records++
		p.metrics.records.Inc()
		p.logger.Debug("wrote record", zap.String("location", location), zap.Int("fields", r.Len()))
	}
	return stats, nil
}
