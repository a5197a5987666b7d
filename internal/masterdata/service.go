// Package masterdata implements the vendor reference-file pipeline: fetch
// per-segment archives, extract and decode them, parse records, and cache
// the deduplicated dataset on local disk with a 24-hour freshness window.
package masterdata

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/cache"
	"github.com/stockboard/marketdata-go/internal/config"
)

// segment is one market/venue-specific feed within a dataset.
type segment struct {
	name     string
	url      string
	domestic bool
	market   Market
	venue    Venue
}

// Service owns the master datasets. Unlike the token, reference data needs
// no distributed coordination: any instance can regenerate it independently
// and the local tier is authoritative.
type Service struct {
	cache   *cache.TieredCache
	fetcher *Fetcher
	parser  *Parser
	ttl     time.Duration

	segments map[Kind][]segment
}

var domesticMarkets = map[string]Market{
	"kospi":  MarketKOSPI,
	"kosdaq": MarketKOSDAQ,
}

var foreignVenues = map[string]Venue{
	"nasdaq": VenueNASDAQ,
	"nyse":   VenueNYSE,
	"amex":   VenueAMEX,
}

func NewService(c *cache.TieredCache, cfg config.MasterDataConfig) *Service {
	segments := map[Kind][]segment{}
	for name, url := range cfg.DomesticURLs {
		market, ok := domesticMarkets[name]
		if !ok {
			logrus.WithField("segment", name).Warn("unknown domestic segment in configuration, skipping")
			continue
		}
		segments[KindDomestic] = append(segments[KindDomestic], segment{name: name, url: url, domestic: true, market: market})
	}
	for name, url := range cfg.ForeignURLs {
		venue, ok := foreignVenues[name]
		if !ok {
			logrus.WithField("segment", name).Warn("unknown foreign segment in configuration, skipping")
			continue
		}
		segments[KindForeign] = append(segments[KindForeign], segment{name: name, url: url, venue: venue})
	}
	// Deterministic merge order so last-write-wins is reproducible.
	for _, segs := range segments {
		sort.Slice(segs, func(i, j int) bool { return segs[i].name < segs[j].name })
	}

	return &Service{
		cache:    c,
		fetcher:  NewFetcher(cfg),
		parser:   NewParser(cfg.ForeignSchema),
		ttl:      cfg.CacheTTL(),
		segments: segments,
	}
}

func datasetKey(kind Kind) string {
	return "master:" + string(kind)
}

// GetDataset returns the cached dataset when fresh, otherwise runs a full
// sync. A failed sync degrades to an empty dataset rather than failing the
// caller; master-data consumers tolerate stale or partial data.
func (s *Service) GetDataset(ctx context.Context, kind Kind, forceRefresh bool) *Dataset {
	if !forceRefresh {
		if ds := s.readCache(ctx, kind); ds.Fresh(time.Now()) {
			return ds
		}
	}
	return s.SyncDataset(ctx, kind)
}

// SyncDataset runs the full pipeline for one dataset: concurrent segment
// downloads with isolated failures, extract, decode, parse, then a single
// atomic merge and cache write after every segment has been attempted.
// Callers never observe a partially merged dataset.
func (s *Service) SyncDataset(ctx context.Context, kind Kind) *Dataset {
	segs := s.segments[kind]

	results := make([][]Record, len(segs))
	var mu sync.Mutex
	var errs *multierror.Error
	var wg sync.WaitGroup

	for i, seg := range segs {
		wg.Add(1)
		go func(i int, seg segment) {
			defer wg.Done()
			records, err := s.syncSegment(ctx, seg)
			if err != nil {
				// Segment failures are isolated: log, record, keep the
				// dataset usable with the remaining segments.
				logrus.WithError(err).WithField("segment", seg.name).Warn("master segment sync failed, skipping")
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
				return
			}
			results[i] = records
		}(i, seg)
	}
	wg.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("master sync completed with segment failures")
	}

	// Merge in segment order, later entries overwriting earlier ones with
	// the same symbol.
	records := make(map[string]Record)
	for _, segRecords := range results {
		for _, r := range segRecords {
			records[r.Symbol] = r
		}
	}

	now := time.Now()
	dataset := &Dataset{
		Records:   records,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.writeCache(ctx, kind, dataset)

	logrus.WithFields(logrus.Fields{"kind": kind, "records": len(records)}).Info("synced master dataset")
	return dataset
}

func (s *Service) syncSegment(ctx context.Context, seg segment) ([]Record, error) {
	archive, err := s.fetcher.FetchSegment(ctx, seg.url)
	if err != nil {
		return nil, err
	}

	raw, err := extractSingleEntry(archive)
	if err != nil {
		return nil, err
	}

	text, err := decodeEUCKR(raw)
	if err != nil {
		return nil, err
	}

	if seg.domestic {
		return s.parser.ParseDomestic(text, seg.market), nil
	}
	return s.parser.ParseForeign(text, seg.venue), nil
}

// Lookup resolves one symbol in the cached dataset without triggering a
// sync; a cold cache is simply a miss.
func (s *Service) Lookup(ctx context.Context, kind Kind, symbol string) (Record, bool) {
	ds := s.readCache(ctx, kind)
	if ds == nil {
		return Record{}, false
	}
	r, ok := ds.Records[symbol]
	return r, ok
}

// CacheStatus reports per-dataset cache state for the status endpoint.
func (s *Service) CacheStatus(ctx context.Context) map[Kind]Status {
	status := make(map[Kind]Status, len(s.segments))
	for kind := range s.segments {
		ds := s.readCache(ctx, kind)
		if ds == nil {
			status[kind] = Status{}
			continue
		}
		expires := ds.ExpiresAt
		status[kind] = Status{Exists: true, ExpiresAt: &expires, Count: len(ds.Records)}
	}
	return status
}

// ClearCache drops every cached dataset.
func (s *Service) ClearCache(ctx context.Context) error {
	var errs *multierror.Error
	for kind := range s.segments {
		if err := s.cache.Delete(ctx, datasetKey(kind)); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (s *Service) readCache(ctx context.Context, kind Kind) *Dataset {
	entry, ok := s.cache.GetLocal(ctx, datasetKey(kind))
	if !ok {
		return nil
	}
	var ds Dataset
	if err := json.Unmarshal([]byte(entry.Data), &ds); err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("corrupt cached master dataset, forcing resync")
		return nil
	}
	return &ds
}

// writeCache persists to the local tier only: reference data does not need
// cross-instance coordination and the write is one atomic replacement.
func (s *Service) writeCache(ctx context.Context, kind Kind, ds *Dataset) {
	data, err := json.Marshal(ds)
	if err != nil {
		logrus.WithError(err).WithField("kind", kind).Error("failed to serialize master dataset")
		return
	}
	s.cache.SetLocal(ctx, datasetKey(kind), cache.Entry{
		Data:      string(data),
		CreatedAt: ds.CreatedAt,
		ExpiresAt: ds.ExpiresAt,
	}, s.ttl)
}
