// Package mapper composes discovery, fetching, classification and
// deduplication into one FirmContacts record per seed.
package mapper

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contact-mapper/internal/classify"
	"github.com/sells-group/contact-mapper/internal/contacts"
	"github.com/sells-group/contact-mapper/internal/discover"
	"github.com/sells-group/contact-mapper/internal/fetcher"
	"github.com/sells-group/contact-mapper/internal/htmltext"
	"github.com/sells-group/contact-mapper/internal/metrics"
	"github.com/sells-group/contact-mapper/internal/model"
	"github.com/sells-group/contact-mapper/internal/seeds"
)

const (
	// DefaultSource is used when a seed carries no source.
	DefaultSource = "unknown"
	// DefaultExposureScore is used when a seed carries no exposure score.
	DefaultExposureScore = 100.0
)

// Options configures a Mapper.
type Options struct {
	// NewFetcher returns the fetcher for one firm. Each firm gets its own
	// so polite delays apply per host.
	NewFetcher func() fetcher.Fetcher
	Classifier *classify.Classifier
	Discover   discover.Options
	// Concurrency bounds how many firms MapAll maps at once. Fetches within
	// a firm are always sequential.
	Concurrency int
}

// Mapper maps firm seeds to contacts.
type Mapper struct {
	newFetcher  func() fetcher.Fetcher
	classifier  *classify.Classifier
	discover    discover.Options
	concurrency int
}

// New creates a Mapper. Zero-valued options fall back to an HTTP fetcher
// with default settings, the embedded classifier rules, and one firm at a
// time.
func New(opts Options) *Mapper {
	m := &Mapper{
		newFetcher:  opts.NewFetcher,
		classifier:  opts.Classifier,
		discover:    opts.Discover,
		concurrency: opts.Concurrency,
	}
	if m.newFetcher == nil {
		m.newFetcher = func() fetcher.Fetcher {
			return fetcher.NewHTTPFetcher(fetcher.Options{})
		}
	}
	if m.classifier == nil {
		m.classifier = classify.Default()
	}
	if m.concurrency < 1 {
		m.concurrency = 1
	}
	return m
}

// MapFirmContacts discovers, fetches and classifies the profile pages of one
// firm. Per-URL failures only shrink the result; the sole error is context
// cancellation.
func (m *Mapper) MapFirmContacts(ctx context.Context, seed model.FirmSeed) (*model.FirmContacts, error) {
	start := time.Now()

	domain := seeds.NormalizeDomain(seed.Domain)
	if domain == "" {
		domain = strings.ToLower(strings.Trim(strings.TrimSpace(seed.Domain), "/"))
	}
	result := &model.FirmContacts{
		Firm:          seed.Firm,
		Domain:        domain,
		Source:        seed.Source,
		ExposureScore: DefaultExposureScore,
		Contacts:      []model.MappedContact{},
	}
	if result.Source == "" {
		result.Source = DefaultSource
	}
	if seed.ExposureScore != nil {
		result.ExposureScore = *seed.ExposureScore
	}

	log := zap.L().With(zap.String("firm", seed.Firm), zap.String("domain", domain))
	base := "https://" + domain
	f := m.newFetcher()
	defer fetcher.Release(f)

	found, err := m.mapPages(ctx, log, f, base)
	if err != nil {
		return nil, err
	}

	result.Contacts = contacts.Dedupe(found)
	metrics.Contacts.Add(float64(len(result.Contacts)))
	metrics.FirmDuration.Observe(time.Since(start).Seconds())

	log.Info("mapper: firm mapped",
		zap.Int("contacts", len(result.Contacts)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (m *Mapper) mapPages(ctx context.Context, log *zap.Logger, f fetcher.Fetcher, base string) ([]model.MappedContact, error) {
	res, err := discover.New(f, m.discover).Discover(ctx, base)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, eris.Wrap(ctxErr, "mapper: discover")
		}
		log.Warn("mapper: discovery failed", zap.Error(err))
		return nil, nil
	}

	candidates := res.URLs
	if len(candidates) > discover.MaxCandidates {
		candidates = candidates[:discover.MaxCandidates]
	}
	log.Debug("mapper: candidates discovered",
		zap.String("method", string(res.Method)),
		zap.Int("candidates", len(candidates)),
	)

	var found []model.MappedContact
	for _, pageURL := range candidates {
		resp, err := f.Fetch(ctx, pageURL)
		metrics.RecordFetch(metrics.KindProfile, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, eris.Wrap(ctxErr, "mapper: fetch profile")
		}
		if err != nil {
			log.Debug("mapper: profile fetch failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}

		contact, ok := m.classifyPage(log, pageURL, resp.Text())
		if ok {
			found = append(found, contact)
		}
	}
	return found, nil
}

// classifyPage extracts one fetched profile page and runs it through the
// classifier.
func (m *Mapper) classifyPage(log *zap.Logger, pageURL, raw string) (model.MappedContact, bool) {
	page := htmltext.Extract(pageURL, raw)
	name := m.classifier.PickName(page)
	verdict := m.classifier.Classify(name, page.RawText)

	if !verdict.Accepted {
		metrics.PagesClassified.WithLabelValues("rejected").Inc()
		log.Debug("mapper: page rejected",
			zap.String("url", pageURL),
			zap.String("name", name),
			zap.Int("bio_signals", verdict.BioSignals),
		)
		return model.MappedContact{}, false
	}

	metrics.PagesClassified.WithLabelValues("accepted").Inc()
	log.Debug("mapper: page accepted",
		zap.String("url", pageURL),
		zap.String("name", name),
		zap.String("role", verdict.Role),
		zap.Float64("confidence", verdict.Confidence),
	)
	return model.MappedContact{
		Name:         name,
		Role:         verdict.Role,
		SourceURL:    pageURL,
		EvidenceText: htmltext.Truncate(page.RawText, htmltext.MaxEvidenceRunes),
		Confidence:   verdict.Confidence,
	}, true
}

// MapAll maps every seed and returns the records in seed order. Up to
// Concurrency firms run at once. A cancelled context aborts the whole batch.
func (m *Mapper) MapAll(ctx context.Context, firms []model.FirmSeed) ([]model.FirmContacts, error) {
	log := zap.L().With(zap.Int("firms", len(firms)), zap.Int("concurrency", m.concurrency))
	log.Info("mapper: starting batch")
	start := time.Now()

	results := make([]model.FirmContacts, len(firms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, seed := range firms {
		g.Go(func() error {
			fc, err := m.MapFirmContacts(gctx, seed)
			if err != nil {
				return err
			}
			results[i] = *fc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "mapper: batch run")
	}

	log.Info("mapper: batch complete",
		zap.Int("contacts", model.CountContacts(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
