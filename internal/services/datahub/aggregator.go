package datahub

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

// Service fans queries out to the registered source fetchers and merges the
// results. A degraded source never degrades the merge: fetch errors,
// timeouts and panics all collapse to an empty contribution and a warning.
type Service struct {
	legal   []interfaces.SourceFetcher
	all     []interfaces.SourceFetcher
	timeout time.Duration
	logger  arbor.ILogger
}

// NewService builds the aggregator with the default source set
func NewService(config *common.DatahubConfig, logger arbor.ILogger) *Service {
	client := &http.Client{Timeout: config.SourceTimeout}

	camara := NewCamaraFetcher(config.CamaraBaseURL, config.MaxPerSource, client, logger)
	senado := NewSenadoFetcher(config.SenadoBaseURL, config.MaxPerSource, client, logger)

	legal := []interfaces.SourceFetcher{camara, senado}
	all := []interfaces.SourceFetcher{
		camara,
		senado,
		NewDiarioFetcher(config.DiarioBaseURL, config.MaxPerSource, client, logger),
		NewBaseDosDadosFetcher(config.BasedadosAPIURL, config.MaxPerSource, client, logger),
		NewTSEFetcher(logger),
		NewDataJudFetcher(logger),
	}

	return &Service{
		legal:   legal,
		all:     all,
		timeout: config.SourceTimeout,
		logger:  logger,
	}
}

// NewServiceWithFetchers builds an aggregator over an explicit fetcher set
func NewServiceWithFetchers(legal, all []interfaces.SourceFetcher, timeout time.Duration, logger arbor.ILogger) *Service {
	return &Service{legal: legal, all: all, timeout: timeout, logger: logger}
}

var _ interfaces.Aggregator = (*Service)(nil)

// SearchLegal queries the legislative sources only
func (s *Service) SearchLegal(ctx context.Context, query string) models.AggregationResult {
	s.logger.Info().Str("query", query).Int("sources", len(s.legal)).Msg("Starting legal source search")
	return s.collect(ctx, query, s.legal)
}

// SearchAll queries every registered source
func (s *Service) SearchAll(ctx context.Context, query string) models.AggregationResult {
	start := time.Now()
	result := s.collect(ctx, query, s.all)
	s.logger.Info().
		Str("query", query).
		Int("documents", len(result.Documents)).
		Str("elapsed", time.Since(start).String()).
		Msg("Federated search complete")
	return result
}

type sourceResult struct {
	source models.Source
	docs   []models.SourceDocument
}

// collect starts every fetcher concurrently and merges contributions in the
// order they complete, deduplicating by document ID with first seen winning.
func (s *Service) collect(ctx context.Context, query string, fetchers []interfaces.SourceFetcher) models.AggregationResult {
	results := make(chan sourceResult, len(fetchers))

	for _, fetcher := range fetchers {
		fetcher := fetcher
		go func() {
			results <- sourceResult{
				source: fetcher.Name(),
				docs:   s.fetchSafe(ctx, fetcher, query),
			}
		}()
	}

	seen := make(map[string]struct{})
	var merged []models.SourceDocument
	for i := 0; i < len(fetchers); i++ {
		result := <-results
		for _, doc := range result.docs {
			if doc.ID == "" {
				continue
			}
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			merged = append(merged, doc)
		}
	}

	return models.AggregationResult{Documents: merged}
}

// fetchSafe runs one fetcher under its own deadline, converting errors and
// panics into an empty contribution
func (s *Service) fetchSafe(ctx context.Context, fetcher interfaces.SourceFetcher, query string) (docs []models.SourceDocument) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			s.logger.Error().
				Str("source", string(fetcher.Name())).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(buf[:n])).
				Msg("Recovered from panic in source fetcher")
			docs = nil
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fetched, err := fetcher.Fetch(fetchCtx, query)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", string(fetcher.Name())).Msg("Source fetch failed, contributing empty result")
		return nil
	}
	return fetched
}
