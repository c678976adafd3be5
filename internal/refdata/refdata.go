// Package refdata loads the lookup collections (titles, countries, cities
// and so on) once and serves them to every view. It is the only cache of
// reference data in the program: callers that change a collection call
// Invalidate and the next Load refetches just that collection.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/hrdesk/internal/hrapi"
)

// Fetcher is the part of the records client the service needs.
type Fetcher interface {
	ListLookups(ctx context.Context, kind hrapi.Kind) (hrapi.Result[[]hrapi.Lookup], error)
}

// Catalog maps each collection to its items as the backend returned them.
type Catalog map[hrapi.Kind][]hrapi.Lookup

// All returns a copy of the raw collection, inactive items included.
func (c Catalog) All(kind hrapi.Kind) []hrapi.Lookup {
	return append([]hrapi.Lookup(nil), c[kind]...)
}

// Options returns the items offered in pickers: active only, default item
// first, the rest in backend order.
func (c Catalog) Options(kind hrapi.Kind) []hrapi.Lookup {
	out := make([]hrapi.Lookup, 0, len(c[kind]))
	for _, item := range c[kind] {
		if item.IsActive {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsDefault && !out[j].IsDefault
	})
	return out
}

// Names returns Options as display names.
func (c Catalog) Names(kind hrapi.Kind) []string {
	opts := c.Options(kind)
	names := make([]string, 0, len(opts))
	for _, item := range opts {
		names = append(names, item.Name)
	}
	return names
}

// CitiesIn returns the active cities of country. An empty country returns
// every active city.
func (c Catalog) CitiesIn(country string) []hrapi.Lookup {
	country = strings.TrimSpace(country)
	cities := c.Options(hrapi.KindCities)
	if country == "" {
		return cities
	}
	out := cities[:0:0]
	for _, city := range cities {
		if strings.EqualFold(city.Country, country) {
			out = append(out, city)
		}
	}
	return out
}

// KindError reports which collection failed to load.
type KindError struct {
	Kind hrapi.Kind
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("refdata: load %s: %v", e.Kind, e.Err)
}

func (e *KindError) Unwrap() error { return e.Err }

// Service owns the catalog.
type Service struct {
	fetcher  Fetcher
	snapshot string
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	catalog Catalog
	loaded  map[hrapi.Kind]bool
}

// Option customizes a Service.
type Option func(*Service)

// WithSnapshot persists the catalog to path and seeds from it on start.
func WithSnapshot(path string) Option {
	return func(s *Service) {
		s.snapshot = strings.TrimSpace(path)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New builds a service. A readable snapshot marks its collections as loaded.
func New(fetcher Fetcher, opts ...Option) (*Service, error) {
	if fetcher == nil {
		return nil, errors.New("refdata: fetcher is required")
	}
	s := &Service{
		fetcher: fetcher,
		logger:  zerolog.Nop(),
		now:     time.Now,
		catalog: Catalog{},
		loaded:  map[hrapi.Kind]bool{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.snapshot != "" {
		if err := s.readSnapshot(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load fetches every collection not yet loaded, all in parallel. Collections
// that fail stay unloaded and are retried on the next Load; the others are
// kept. The returned catalog is always usable.
func (s *Service) Load(ctx context.Context) (Catalog, error) {
	pending := s.pendingKinds()
	if len(pending) == 0 {
		return s.Catalog(), nil
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		fetched = Catalog{}
		failed  []error
	)
	for _, kind := range pending {
		kind := kind
		g.Go(func() error {
			items, err := s.fetch(ctx, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, &KindError{Kind: kind, Err: err})
				return nil
			}
			fetched[kind] = items
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	for kind, items := range fetched {
		s.catalog[kind] = items
		s.loaded[kind] = true
	}
	s.mu.Unlock()

	s.logger.Info().Int("fetched", len(fetched)).Int("failed", len(failed)).Msg("reference data loaded")
	if len(fetched) > 0 && s.snapshot != "" {
		if err := s.writeSnapshot(); err != nil {
			failed = append(failed, err)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Error() < failed[j].Error() })
	return s.Catalog(), errors.Join(failed...)
}

func (s *Service) fetch(ctx context.Context, kind hrapi.Kind) ([]hrapi.Lookup, error) {
	res, err := s.fetcher.ListLookups(ctx, kind)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, errors.New(msg)
	}
	if res.Data == nil {
		return []hrapi.Lookup{}, nil
	}
	return res.Data, nil
}

// Catalog returns a copy of what is loaded so far.
func (s *Service) Catalog() Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Catalog, len(s.catalog))
	for kind, items := range s.catalog {
		out[kind] = append([]hrapi.Lookup(nil), items...)
	}
	return out
}

// Loaded reports whether kind has been fetched or seeded.
func (s *Service) Loaded(kind hrapi.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[kind]
}

// Invalidate marks kinds stale; with no arguments every collection is.
// Stale data stays readable until the next Load replaces it.
func (s *Service) Invalidate(kinds ...hrapi.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(kinds) == 0 {
		kinds = hrapi.AllKinds
	}
	for _, kind := range kinds {
		delete(s.loaded, kind)
	}
}

func (s *Service) pendingKinds() []hrapi.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []hrapi.Kind
	for _, kind := range hrapi.AllKinds {
		if !s.loaded[kind] {
			pending = append(pending, kind)
		}
	}
	return pending
}

type snapshotFile struct {
	SavedAt     time.Time                      `yaml:"saved_at"`
	Collections map[hrapi.Kind][]hrapi.Lookup `yaml:"collections"`
}

func (s *Service) readSnapshot() error {
	data, err := os.ReadFile(s.snapshot)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("refdata: read snapshot: %w", err)
	}
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("refdata: parse snapshot %s: %w", s.snapshot, err)
	}
	for kind, items := range file.Collections {
		if !kind.Valid() {
			continue
		}
		s.catalog[kind] = items
		s.loaded[kind] = true
	}
	s.logger.Info().Str("path", s.snapshot).Time("saved_at", file.SavedAt).Msg("reference snapshot seeded")
	return nil
}

func (s *Service) writeSnapshot() error {
	file := snapshotFile{SavedAt: s.now().UTC(), Collections: s.Catalog()}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("refdata: encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshot), 0o755); err != nil {
		return fmt.Errorf("refdata: snapshot dir: %w", err)
	}
	if err := os.WriteFile(s.snapshot, data, 0o644); err != nil {
		return fmt.Errorf("refdata: write snapshot: %w", err)
	}
	return nil
}
