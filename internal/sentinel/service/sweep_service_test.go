package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/config"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/fetcher"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/common"
	"golang-deal-sentinel/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.Signal{},
		&entity.Source{},
		&entity.WatchlistTarget{},
		&entity.SweepRun{},
		&entity.Pulse{},
	))
	return db
}

func newSweepTestConfig() *config.Config {
	return &config.Config{
		Sweep: config.Sweep{
			MaxConcurrentFetches:     2,
			EntriesPerSource:         20,
			EntriesPerTarget:         5,
			ExtractionQueueSize:      4,
			MaxConcurrentExtractions: 1,
		},
	}
}

type fakeFeedFetcher struct {
	feeds    map[string][]dto.RawEntry
	failURLs map[string]bool
	article  string
}

func (f *fakeFeedFetcher) Fetch(ctx context.Context, sourceURL string) ([]dto.RawEntry, error) {
	if f.failURLs[sourceURL] {
		return nil, errors.New("connection refused")
	}
	return f.feeds[sourceURL], nil
}

func (f *fakeFeedFetcher) FetchArticleText(ctx context.Context, articleURL string) (string, error) {
	return f.article, nil
}

type fakeExtractor struct {
	result *dto.ExtractionResult
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, sourceText, sectorKey string) (*dto.ExtractionResult, error) {
	return f.result, f.err
}

type fakeEnricher struct {
	profile       *entity.CompanyProfile
	companyNumber string
	charges       []dto.RegistryEvent
	pscs          []dto.RegistryEvent
}

func (f *fakeEnricher) Enrich(ctx context.Context, companyName string) (*entity.CompanyProfile, error) {
	return f.profile, nil
}

func (f *fakeEnricher) SearchCompanyNumber(ctx context.Context, companyName string) (string, error) {
	return f.companyNumber, nil
}

func (f *fakeEnricher) FetchCharges(ctx context.Context, companyNumber string) ([]dto.RegistryEvent, error) {
	return f.charges, nil
}

func (f *fakeEnricher) FetchPersonsWithControl(ctx context.Context, companyNumber string) ([]dto.RegistryEvent, error) {
	return f.pscs, nil
}

func newTestSweepService(t *testing.T, db *gorm.DB, feeds FeedFetcher, extractor repository.ExtractionRepository, enricher repository.EnrichmentRepository) *SweepService {
	t.Helper()
	log := logger.NewNop()
	return NewSweepService(
		newSweepTestConfig(),
		log,
		repository.NewSourceRepository(db, log),
		repository.NewWatchlistRepository(db),
		repository.NewSignalRepository(db),
		repository.NewSweepRunRepository(db),
		nil,
		feeds,
		extractor,
		enricher,
		NewShadowMarketService(log),
	)
}

func seedSources(t *testing.T, db *gorm.DB, urls ...string) {
	t.Helper()
	for _, u := range urls {
		require.NoError(t, db.Create(&entity.Source{
			TenantID:   common.DefaultTenantID,
			Name:       "Feed " + u,
			URL:        u,
			Type:       entity.SourceTypeRSS,
			Active:     true,
			SignalType: entity.SignalTypeRescue,
		}).Error)
	}
}

func entriesFor(prefix string, n int) []dto.RawEntry {
	entries := make([]dto.RawEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, dto.RawEntry{
			Title:   prefix + " Company " + string(rune('A'+i)) + " - Example News",
			Summary: "Summary for " + prefix,
			Link:    "https://example.com/" + prefix + "/" + string(rune('a'+i)),
		})
	}
	return entries
}

func TestRunSweep_SourceFailureIsolation(t *testing.T) {
	db := newServiceTestDB(t)
	seedSources(t, db, "https://feeds.example.com/one", "https://feeds.example.com/two", "https://feeds.example.com/three")

	feeds := &fakeFeedFetcher{
		feeds: map[string][]dto.RawEntry{
			"https://feeds.example.com/one":   entriesFor("one", 2),
			"https://feeds.example.com/three": entriesFor("three", 3),
		},
		failURLs: map[string]bool{"https://feeds.example.com/two": true},
	}
	svc := newTestSweepService(t, db, feeds, &fakeExtractor{err: errors.New("unused")}, &fakeEnricher{})

	result, err := svc.RunSweep(context.Background())
	require.NoError(t, err)

	// The dead source is one contained error; its siblings are fully processed.
	assert.Equal(t, string(entity.SweepStatusDoneWithErrors), result.Status)
	assert.Equal(t, 5, result.Scanned)
	assert.Equal(t, 5, result.NewDeals)
	assert.Equal(t, 1, result.Errors)

	run, err := repository.NewSweepRunRepository(db).GetByID(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, entity.SweepStageDone, run.Stage)
	assert.Equal(t, entity.SweepStatusDoneWithErrors, run.Status)
	assert.True(t, run.CompletedAt.Valid)
}

func TestRunSweep_AllHealthySucceeds(t *testing.T) {
	db := newServiceTestDB(t)
	seedSources(t, db, "https://feeds.example.com/one")

	feeds := &fakeFeedFetcher{feeds: map[string][]dto.RawEntry{
		"https://feeds.example.com/one": entriesFor("one", 2),
	}}
	svc := newTestSweepService(t, db, feeds, &fakeExtractor{}, &fakeEnricher{})

	result, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(entity.SweepStatusSuccess), result.Status)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 0, result.Errors)
}

func TestRunSweep_FastModeSignalShape(t *testing.T) {
	db := newServiceTestDB(t)
	seedSources(t, db, "https://feeds.example.com/one")

	feeds := &fakeFeedFetcher{feeds: map[string][]dto.RawEntry{
		"https://feeds.example.com/one": {
			{Title: "Acme Ltd - Example News", Link: "https://example.com/acme", Summary: ""},
		},
	}}
	svc := newTestSweepService(t, db, feeds, &fakeExtractor{}, &fakeEnricher{})

	_, err := svc.RunSweep(context.Background())
	require.NoError(t, err)

	var stored entity.Signal
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "Acme Ltd", stored.CompanyName)
	assert.Equal(t, "No summary available", stored.Analysis)
	assert.Equal(t, entity.DefaultConvictionScore, stored.ConvictionScore)
	assert.Equal(t, entity.SourceFamilyRSSNews, stored.SourceFamily)
	assert.Equal(t, "rss_fast_sweep", stored.QuerySource)
	// The source's configured type wins over the generic default.
	assert.Equal(t, entity.SignalTypeRescue, stored.SignalType)
}

func TestRunSweep_DedupByLinkAcrossRuns(t *testing.T) {
	db := newServiceTestDB(t)
	seedSources(t, db, "https://feeds.example.com/one")

	feeds := &fakeFeedFetcher{feeds: map[string][]dto.RawEntry{
		"https://feeds.example.com/one": entriesFor("one", 2),
	}}
	svc := newTestSweepService(t, db, feeds, &fakeExtractor{}, &fakeEnricher{})

	first, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewDeals)

	second, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Scanned)
	assert.Equal(t, 0, second.NewDeals)
}

func TestRunSweep_WatchlistHit(t *testing.T) {
	db := newServiceTestDB(t)
	seedSources(t, db, "https://feeds.example.com/one")
	require.NoError(t, db.Create(&entity.WatchlistTarget{
		TenantID:         common.DefaultTenantID,
		CompanyName:      "Target Holdings",
		MonitoringActive: true,
	}).Error)

	watchURL := fetcher.WatchlistQueryURL("Target Holdings")
	feeds := &fakeFeedFetcher{
		feeds: map[string][]dto.RawEntry{
			watchURL: {
				{Title: "Target Holdings nears acquisition by rival", Link: "https://example.com/t1", Summary: "Deal talk"},
			},
		},
		article: "Long article body about the acquisition talks.",
	}
	extractor := &fakeExtractor{result: &dto.ExtractionResult{
		CompanyName:        "Hallucinated Name Plc",
		CompanyDescription: "UK consumer business in exclusive talks.",
		SignalType:         "GROWTH",
		ConvictionScore:    60,
	}}
	enricher := &fakeEnricher{profile: &entity.CompanyProfile{
		RegistrationNumber: "01234567",
		IncorporationDate:  "2010-01-01",
	}}
	svc := newTestSweepService(t, db, feeds, extractor, enricher)

	result, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewDeals)

	var stored entity.Signal
	require.NoError(t, db.Where("query_source = ?", "watchlist_hit").First(&stored).Error)
	assert.Equal(t, "Target Holdings", stored.CompanyName)
	assert.True(t, strings.HasPrefix(stored.Analysis, "[WATCHLIST ALERT] "))
	assert.Equal(t, 90, stored.ConvictionScore)
	assert.Equal(t, entity.SignalTypeGrowth, stored.SignalType)
	assert.Equal(t, "01234567", stored.RegistrationNumber)
}

func TestRunSweep_ShadowMarketScan(t *testing.T) {
	db := newServiceTestDB(t)
	seedSources(t, db, "https://feeds.example.com/one")
	require.NoError(t, db.Create(&entity.WatchlistTarget{
		TenantID:         common.DefaultTenantID,
		CompanyName:      "Charged Ltd",
		MonitoringActive: true,
	}).Error)

	enricher := &fakeEnricher{
		companyNumber: "07654321",
		profile:       &entity.CompanyProfile{RegistrationNumber: "07654321", IncorporationDate: "2012-05-01"},
		charges: []dto.RegistryEvent{
			{Type: dto.RegistryEventCharge, Description: "Fixed and floating charge", CompanyNumber: "07654321"},
		},
		pscs: []dto.RegistryEvent{
			// Below the floor on its own: an individual PSC scores 50, but the
			// long incorporation tenure lifts it to the floor.
			{Type: dto.RegistryEventPSC, Description: "Jane Doe individual-person-with-significant-control", CompanyNumber: "07654321"},
		},
	}
	// Extraction errors must not affect the registry path.
	svc := newTestSweepService(t, db, &fakeFeedFetcher{}, &fakeExtractor{err: errors.New("down")}, enricher)

	result, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewDeals)

	var stored []entity.Signal
	require.NoError(t, db.Where("query_source = ?", "shadow_market_scan").Order("conviction_score DESC").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, 85, stored[0].ConvictionScore)
	assert.Equal(t, entity.SignalTypeGrowth, stored[0].SignalType)
	assert.Equal(t, ConvictionFloor, stored[1].ConvictionScore)
	for _, s := range stored {
		assert.Equal(t, entity.SourceFamilyGovRegistry, s.SourceFamily)
		assert.True(t, strings.HasPrefix(s.Headline, "CH ALERT: "))
	}
}

func TestFastSignalFromEntry_TruncatesOnRuneBoundary(t *testing.T) {
	source := entity.Source{Name: "Feed", SignalType: entity.SignalTypeRescue}
	entry := dto.RawEntry{
		// The two-byte rune straddles each cap's byte boundary.
		Title:   strings.Repeat("b", 49) + "é trailing headline text",
		Summary: strings.Repeat("a", 499) + "é and more commentary",
		Link:    "https://example.com/unicode",
	}

	signal := fastSignalFromEntry(source, entry)

	assert.True(t, utf8.ValidString(signal.Analysis))
	assert.Equal(t, strings.Repeat("a", 499), signal.Analysis)
	assert.True(t, utf8.ValidString(signal.CompanyName))
	assert.Equal(t, strings.Repeat("b", 49), signal.CompanyName)
}

// panickingWatchlistRepo simulates a repository bug surfacing mid-run.
type panickingWatchlistRepo struct {
	repository.WatchlistRepository
}

func (panickingWatchlistRepo) GetActiveTargets(ctx context.Context, tenantID string) ([]entity.WatchlistTarget, error) {
	panic("watchlist store corrupted")
}

func TestRunSweep_PanicMarksRunFailed(t *testing.T) {
	db := newServiceTestDB(t)
	log := logger.NewNop()
	svc := NewSweepService(
		newSweepTestConfig(),
		log,
		repository.NewSourceRepository(db, log),
		panickingWatchlistRepo{},
		repository.NewSignalRepository(db),
		repository.NewSweepRunRepository(db),
		nil,
		&fakeFeedFetcher{},
		&fakeExtractor{},
		&fakeEnricher{},
		NewShadowMarketService(log),
	)

	result, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(entity.SweepStatusFailed), result.Status)

	run, err := repository.NewSweepRunRepository(db).GetByID(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, entity.SweepStatusFailed, run.Status)
	assert.True(t, run.CompletedAt.Valid)
	assert.Contains(t, run.ErrorMessage.String, "watchlist store corrupted")

	status, err := svc.GetTaskStatus(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SweepStatusFailed), status.Status)
	assert.Contains(t, status.Error, "watchlist store corrupted")
}

func TestGetTaskStatus_FallsBackToRunStore(t *testing.T) {
	db := newServiceTestDB(t)
	seedSources(t, db, "https://feeds.example.com/one")

	feeds := &fakeFeedFetcher{feeds: map[string][]dto.RawEntry{
		"https://feeds.example.com/one": entriesFor("one", 1),
	}}
	svc := newTestSweepService(t, db, feeds, &fakeExtractor{}, &fakeEnricher{})

	result, err := svc.RunSweep(context.Background())
	require.NoError(t, err)

	status, err := svc.GetTaskStatus(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, status.TaskID)
	assert.Equal(t, string(entity.SweepStageDone), status.Stage)
	assert.Equal(t, 1, status.Scanned)

	_, err = svc.GetTaskStatus(context.Background(), "missing-run")
	assert.Error(t, err)
}
