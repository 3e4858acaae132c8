package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-mapper/internal/classify"
	"github.com/sells-group/contact-mapper/internal/config"
	"github.com/sells-group/contact-mapper/internal/discover"
	"github.com/sells-group/contact-mapper/internal/fetcher"
	"github.com/sells-group/contact-mapper/internal/mapper"
	"github.com/sells-group/contact-mapper/internal/store"
)

// initStore opens the run ledger. It returns nil when store.path is unset.
func initStore(c *config.Config) (store.Store, error) {
	if c.Store.Path == "" {
		return nil, nil
	}
	st, err := store.NewSQLite(c.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	return st, nil
}

func fetcherOptions(c *config.Config) fetcher.Options {
	return fetcher.Options{
		UserAgent:   c.Mapper.UserAgent,
		Timeout:     c.Mapper.Timeout(),
		PoliteDelay: c.Mapper.Delay(),
	}
}

func discoverOptions(c *config.Config) discover.Options {
	return discover.Options{
		MaxCandidates: c.Mapper.MaxCandidates,
		ExcludePaths:  c.Mapper.ExcludePaths,
	}
}

func initClassifier(c *config.Config) (*classify.Classifier, error) {
	if c.Mapper.RulesPath == "" {
		return classify.Default(), nil
	}
	rules, err := classify.LoadRules(c.Mapper.RulesPath)
	if err != nil {
		return nil, err
	}
	return classify.New(rules)
}

// newFetcherFactory returns a constructor for per-firm fetchers, guarded by
// a circuit breaker when mapper.breaker_threshold is set.
func newFetcherFactory(c *config.Config) func() fetcher.Fetcher {
	opts := fetcherOptions(c)
	threshold := c.Mapper.BreakerThreshold
	return func() fetcher.Fetcher {
		f := fetcher.NewHTTPFetcher(opts)
		if threshold > 0 {
			return fetcher.WithBreaker(f, threshold)
		}
		return f
	}
}

// initMapper wires a Mapper from configuration. Every firm gets its own
// HTTP fetcher so polite delays are per host.
func initMapper(c *config.Config) (*mapper.Mapper, error) {
	classifier, err := initClassifier(c)
	if err != nil {
		return nil, eris.Wrap(err, "init classifier")
	}
	return mapper.New(mapper.Options{
		NewFetcher:  newFetcherFactory(c),
		Classifier:  classifier,
		Discover:    discoverOptions(c),
		Concurrency: c.Mapper.Concurrency,
	}), nil
}
