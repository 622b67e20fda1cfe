package harvest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/crec-harvester/internal/govinfo"
)

type sliceWalker[T any] struct {
	items []T
	err   error
	pos   int
}

func (w *sliceWalker[T]) Next(context.Context) (T, bool, error) {
	var zero T
	if w.err != nil && w.pos == len(w.items) {
		return zero, false, w.err
	}
	if w.pos >= len(w.items) {
		return zero, false, nil
	}
	item := w.items[w.pos]
	w.pos++
	return item, true, nil
}

type fakeSource struct {
	packages    []govinfo.PackageMeta
	packagesErr error
	granules    map[string][]govinfo.GranuleMeta
	resolutions map[string]govinfo.Resolution
	resolveErrs map[string]error
	resolved    []string
}

func (s *fakeSource) Packages(_, _ string) PackageWalker {
	return &sliceWalker[govinfo.PackageMeta]{items: s.packages, err: s.packagesErr}
}

func (s *fakeSource) Granules(packageID string) GranuleWalker {
	return &sliceWalker[govinfo.GranuleMeta]{items: s.granules[packageID]}
}

func (s *fakeSource) Resolve(_ context.Context, _, granuleID string) (govinfo.Resolution, error) {
	s.resolved = append(s.resolved, granuleID)
	if err := s.resolveErrs[granuleID]; err != nil {
		return govinfo.Resolution{}, err
	}
	return s.resolutions[granuleID], nil
}

type memorySink struct {
	records []Record
	err     error
}

func (s *memorySink) Append(rec Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

type memoryStore struct {
	runIDs  []string
	records []Record
	err     error
}

func (s *memoryStore) Store(_ context.Context, runID string, rec Record) error {
	if s.err != nil {
		return s.err
	}
	s.runIDs = append(s.runIDs, runID)
	s.records = append(s.records, rec)
	return nil
}

func speakingDoc(speaker, bioguide, text string) govinfo.Resolution {
	body := fmt.Sprintf(`<doc><speaking speaker=%q bioGuideId=%q>%s</speaking></doc>`,
		speaker, bioguide, text)
	return govinfo.Resolution{Body: body, Found: true, Summary: govinfo.GranuleSummary{Title: "Day Title"}}
}

func newTestEngine(src Source, sink Sink, store RecordStore, cfg Config) (*Engine, *bytes.Buffer) {
	out := &bytes.Buffer{}
	if cfg.StartDate == "" {
		cfg.StartDate = "2023-01-10"
		cfg.EndDate = "2023-01-12"
	}
	return NewEngine(src, sink, store, nil, cfg, zap.NewNop(), out), out
}

func TestEngineAssemblesRecords(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "CREC-2023-01-10", DateIssued: "2023-01-10"}},
		granules: map[string][]govinfo.GranuleMeta{
			"CREC-2023-01-10": {{GranuleID: "CREC-2023-01-10-pt1-PgS123-4", GranuleClass: "senate"}},
		},
		resolutions: map[string]govinfo.Resolution{
			"CREC-2023-01-10-pt1-PgS123-4": speakingDoc("Mr. SMITH", "S000001", "Madam President."),
		},
	}
	sink := &memorySink{}
	e, out := newTestEngine(src, sink, nil, Config{})

	stats, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, RunStats{Packages: 1, Granules: 1, Speeches: 1}, stats)

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	require.Equal(t, "2023-01-10", rec.Date)
	require.Equal(t, "CREC-2023-01-10", rec.PackageID)
	require.Equal(t, "CREC-2023-01-10-pt1-PgS123-4", rec.GranuleID)
	require.Equal(t, "SENATE", rec.Chamber, "granule class is upper-cased into chamber")
	require.Equal(t, "PgS123-4", rec.Page)
	require.Equal(t, "Day Title", rec.Title)
	require.Equal(t, "Mr. SMITH", rec.Speaker)
	require.Equal(t, "S000001", rec.BioguideID)
	require.Equal(t, "Madam President.", rec.Text)

	require.Contains(t, out.String(), "Package 1: CREC-2023-01-10 (2023-01-10)")
}

func TestEnginePerGranuleIsolation(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "pkg", DateIssued: "2023-01-10"}},
		granules: map[string][]govinfo.GranuleMeta{
			"pkg": {{GranuleID: "g1"}, {GranuleID: "g2"}, {GranuleID: "g3"}},
		},
		resolutions: map[string]govinfo.Resolution{
			"g1": speakingDoc("A", "", "one"),
			"g3": speakingDoc("C", "", "three"),
		},
		resolveErrs: map[string]error{"g2": errors.New("summary fetch blew up")},
	}
	sink := &memorySink{}
	e, out := newTestEngine(src, sink, nil, Config{})

	stats, err := e.Run(context.Background())
	require.NoError(t, err, "one bad granule never aborts the run")
	require.Equal(t, 2, stats.Granules)
	require.Len(t, sink.records, 2)
	require.Equal(t, "one", sink.records[0].Text)
	require.Equal(t, "three", sink.records[1].Text)
	require.Contains(t, out.String(), "Failed to fetch g2")
}

func TestEngineSkipsAbsentBodySilently(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "pkg"}},
		granules: map[string][]govinfo.GranuleMeta{
			"pkg": {{GranuleID: "g1"}},
		},
		resolutions: map[string]govinfo.Resolution{
			"g1": {Found: false, Summary: govinfo.GranuleSummary{Title: "no links"}},
		},
	}
	sink := &memorySink{}
	e, out := newTestEngine(src, sink, nil, Config{})

	stats, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.Granules, "granule counter only moves for granules with a body")
	require.Empty(t, sink.records)
	require.NotContains(t, out.String(), "Failed")
}

func TestEngineSkipsGranulesWithoutIDs(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "pkg"}},
		granules: map[string][]govinfo.GranuleMeta{
			"pkg": {{GranuleID: ""}, {GranuleID: "g1"}},
		},
		resolutions: map[string]govinfo.Resolution{
			"g1": speakingDoc("A", "", "one"),
		},
	}
	sink := &memorySink{}
	e, _ := newTestEngine(src, sink, nil, Config{})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"g1"}, src.resolved, "no resolution is attempted without an ID")
}

func TestEnginePackageCap(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "p1"}, {PackageID: "p2"}, {PackageID: "p3"}},
		granules: map[string][]govinfo.GranuleMeta{},
	}
	sink := &memorySink{}
	e, _ := newTestEngine(src, sink, nil, Config{MaxPackages: 2})

	stats, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Packages, "cap is checked after processing the current package")
}

func TestEngineGranuleCapPerPackage(t *testing.T) {
	t.Parallel()

	granules := make([]govinfo.GranuleMeta, 5)
	resolutions := map[string]govinfo.Resolution{}
	for i := range granules {
		id := fmt.Sprintf("g%d", i+1)
		granules[i] = govinfo.GranuleMeta{GranuleID: id}
		resolutions[id] = speakingDoc("A", "", "text "+id)
	}
	src := &fakeSource{
		packages:    []govinfo.PackageMeta{{PackageID: "pkg"}},
		granules:    map[string][]govinfo.GranuleMeta{"pkg": granules},
		resolutions: resolutions,
	}
	sink := &memorySink{}
	e, _ := newTestEngine(src, sink, nil, Config{MaxGranules: 3})

	stats, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.Granules)
	require.Equal(t, []string{"g1", "g2", "g3"}, src.resolved)
}

func TestEnginePackageWalkErrorAbortsRun(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages:    []govinfo.PackageMeta{{PackageID: "p1"}},
		packagesErr: errors.New("upstream exploded"),
		granules:    map[string][]govinfo.GranuleMeta{},
	}
	sink := &memorySink{}
	e, _ := newTestEngine(src, sink, nil, Config{})

	stats, err := e.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "walk packages")
	require.Equal(t, 1, stats.Packages, "work done before the failure is reported")
}

func TestEnginePacesAfterEveryAttemptedGranule(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "pkg"}},
		granules: map[string][]govinfo.GranuleMeta{
			"pkg": {{GranuleID: "g1"}, {GranuleID: "g2"}},
		},
		resolutions: map[string]govinfo.Resolution{
			"g1": speakingDoc("A", "", "one"),
		},
		resolveErrs: map[string]error{"g2": errors.New("boom")},
	}
	sink := &memorySink{}
	paces := 0
	e := NewEngine(src, sink, nil, func(context.Context) error {
		paces++
		return nil
	}, Config{StartDate: "2023-01-10", EndDate: "2023-01-10"}, zap.NewNop(), &bytes.Buffer{})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, paces, "failed resolutions still count as attempted requests")
}

func TestEngineProgressLineEveryTwentyFiveGranules(t *testing.T) {
	t.Parallel()

	granules := make([]govinfo.GranuleMeta, 26)
	resolutions := map[string]govinfo.Resolution{}
	for i := range granules {
		id := fmt.Sprintf("g%02d", i)
		granules[i] = govinfo.GranuleMeta{GranuleID: id}
		resolutions[id] = speakingDoc("A", "", "text")
	}
	src := &fakeSource{
		packages:    []govinfo.PackageMeta{{PackageID: "pkg"}},
		granules:    map[string][]govinfo.GranuleMeta{"pkg": granules},
		resolutions: resolutions,
	}
	sink := &memorySink{}
	e, out := newTestEngine(src, sink, nil, Config{})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(out.String(), "Processed 25 granules, 25 speeches"))
}

func TestEngineStoresRecordsWhenStoreConfigured(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "pkg", DateIssued: "2023-01-10"}},
		granules: map[string][]govinfo.GranuleMeta{
			"pkg": {{GranuleID: "g1"}},
		},
		resolutions: map[string]govinfo.Resolution{
			"g1": speakingDoc("Mr. A", "A000001", "stored text"),
		},
	}
	sink := &memorySink{}
	store := &memoryStore{}
	e, _ := newTestEngine(src, sink, store, Config{})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, store.records, 1)
	require.Equal(t, "stored text", store.records[0].Text)
	require.NotEmpty(t, store.runIDs[0])
}

func TestEngineStoreErrorsAreNonFatal(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		packages: []govinfo.PackageMeta{{PackageID: "pkg"}},
		granules: map[string][]govinfo.GranuleMeta{
			"pkg": {{GranuleID: "g1"}},
		},
		resolutions: map[string]govinfo.Resolution{
			"g1": speakingDoc("A", "", "one"),
		},
	}
	sink := &memorySink{}
	store := &memoryStore{err: errors.New("db down")}
	e, _ := newTestEngine(src, sink, store, Config{})

	stats, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Speeches, "the sink record survives a store failure")
	require.Len(t, sink.records, 1)
}
