package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/config"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/fetcher"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/common"
	"golang-deal-sentinel/pkg/logger"
	"golang-deal-sentinel/pkg/utils"
)

// FeedFetcher is the feed dependency of the sweep orchestrator.
type FeedFetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]dto.RawEntry, error)
	FetchArticleText(ctx context.Context, articleURL string) (string, error)
}

// maxRegistryEventsPerKind caps how many recent charges and PSC entries are
// normalized per watchlist target.
const maxRegistryEventsPerKind = 3

// SweepService orchestrates one sweep run: feed sources, watchlist targets,
// and the shadow-market registry scan, all converging on the same
// persistence contract. It is the only component that mutates the aggregate
// run counters, and it is safe to invoke concurrently with itself.
type SweepService struct {
	cfg           *config.Config
	logger        *logger.Logger
	sourceRepo    repository.SourceRepository
	watchlistRepo repository.WatchlistRepository
	signalRepo    repository.SignalRepository
	runRepo       repository.SweepRunRepository
	taskRepo      repository.TaskStatusRepository
	fetcher       FeedFetcher
	extractor     repository.ExtractionRepository
	enricher      repository.EnrichmentRepository
	shadow        *ShadowMarketService
}

// NewSweepService creates a new SweepService. taskRepo may be nil when no
// task-status store is configured; async polling then falls back to the
// sweep_runs table.
func NewSweepService(
	cfg *config.Config,
	log *logger.Logger,
	sourceRepo repository.SourceRepository,
	watchlistRepo repository.WatchlistRepository,
	signalRepo repository.SignalRepository,
	runRepo repository.SweepRunRepository,
	taskRepo repository.TaskStatusRepository,
	feedFetcher FeedFetcher,
	extractor repository.ExtractionRepository,
	enricher repository.EnrichmentRepository,
	shadow *ShadowMarketService,
) *SweepService {
	return &SweepService{
		cfg:           cfg,
		logger:        log,
		sourceRepo:    sourceRepo,
		watchlistRepo: watchlistRepo,
		signalRepo:    signalRepo,
		runRepo:       runRepo,
		taskRepo:      taskRepo,
		fetcher:       feedFetcher,
		extractor:     extractor,
		enricher:      enricher,
		shadow:        shadow,
	}
}

// sweepCounters aggregates run totals. Worker goroutines report through the
// orchestrator's methods, which serialize on the mutex.
type sweepCounters struct {
	mu       sync.Mutex
	scanned  int
	newDeals int
	errors   int
}

func (c *sweepCounters) addScanned(n int) {
	c.mu.Lock()
	c.scanned += n
	c.mu.Unlock()
}

func (c *sweepCounters) addNewDeals(n int) {
	c.mu.Lock()
	c.newDeals += n
	c.mu.Unlock()
}

func (c *sweepCounters) addError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

func (c *sweepCounters) snapshot() (scanned, newDeals, errors int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanned, c.newDeals, c.errors
}

// RunSweep executes one sweep synchronously. The only error it can return is
// a persistence layer that cannot be opened at all; every other failure is
// contained per item and reflected in the counters.
func (s *SweepService) RunSweep(ctx context.Context) (*dto.SweepResult, error) {
	run, err := s.beginRun(ctx)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, run), nil
}

// StartSweepAsync begins a run in the background and returns its task ID for
// polling. The run record is created synchronously so a dead store surfaces
// immediately.
func (s *SweepService) StartSweepAsync() (string, error) {
	run, err := s.beginRun(context.Background())
	if err != nil {
		return "", err
	}
	utils.GoSafe(func() {
		s.execute(context.Background(), run)
	})
	return run.ID, nil
}

// GetTaskStatus returns the pollable progress for a run, preferring the
// task-status store and falling back to the durable run record.
func (s *SweepService) GetTaskStatus(ctx context.Context, taskID string) (*dto.TaskStatus, error) {
	if s.taskRepo != nil {
		status, err := s.taskRepo.Get(ctx, taskID)
		if err == nil {
			return status, nil
		}
	}
	run, err := s.runRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &dto.TaskStatus{
		TaskID:    run.ID,
		Status:    string(run.Status),
		Stage:     string(run.Stage),
		Scanned:   run.Scanned,
		NewDeals:  run.NewDeals,
		Errors:    run.ErrorCount,
		Error:     run.ErrorMessage.String,
		StartedAt: run.StartedAt,
	}, nil
}

func (s *SweepService) beginRun(ctx context.Context) (*entity.SweepRun, error) {
	run := &entity.SweepRun{
		ID:        fmt.Sprintf("sweep-%d", time.Now().UnixNano()),
		Status:    entity.SweepStatusRunning,
		Stage:     entity.SweepStageIdle,
		StartedAt: time.Now().UTC(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		// A store that cannot even record the run is the one fatal class.
		return nil, fmt.Errorf("persistence layer unavailable, aborting sweep: %w", err)
	}
	return run, nil
}

func (s *SweepService) execute(ctx context.Context, run *entity.SweepRun) (result *dto.SweepResult) {
	counters := &sweepCounters{}
	log := s.logger.With(logger.StringField("run_id", run.ID))

	// A panic anywhere in the pipeline must not leave the run stuck in
	// RUNNING; record it as a FAILED terminal state instead.
	defer func() {
		if r := recover(); r != nil {
			result = s.failRun(ctx, run, counters, fmt.Errorf("sweep panicked: %v", r))
		}
	}()

	log.Info("Starting market sweep")

	s.enterStage(ctx, run, entity.SweepStageFetchingSources, counters)
	sources, err := s.sourceRepo.GetActiveSources(ctx, common.DefaultTenantID)
	if err != nil {
		// GetActiveSources degrades internally; an error here is unexpected
		// but still must not abort the run.
		log.Error("Failed to load sources", logger.ErrorField(err))
		counters.addError()
	}

	s.enterStage(ctx, run, entity.SweepStageWatchlist, counters)
	s.runWatchlistScan(ctx, counters)

	s.enterStage(ctx, run, entity.SweepStageShadowMarket, counters)
	s.runShadowMarketScan(ctx, counters)

	s.enterStage(ctx, run, entity.SweepStageRSS, counters)
	s.runFastSweep(ctx, sources, counters)

	scanned, newDeals, errors := counters.snapshot()
	run.Stage = entity.SweepStageDone
	run.Scanned = scanned
	run.NewDeals = newDeals
	run.ErrorCount = errors
	run.Status = entity.SweepStatusSuccess
	if errors > 0 {
		run.Status = entity.SweepStatusDoneWithErrors
	}
	run.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	s.publishStatus(ctx, run)

	log.Info("Market sweep finished",
		logger.StringField("status", string(run.Status)),
		logger.IntField("scanned", scanned),
		logger.IntField("new_deals", newDeals),
		logger.IntField("errors", errors),
	)

	return &dto.SweepResult{
		RunID:    run.ID,
		Status:   string(run.Status),
		Scanned:  scanned,
		NewDeals: newDeals,
		Errors:   errors,
	}
}

func (s *SweepService) failRun(ctx context.Context, run *entity.SweepRun, counters *sweepCounters, cause error) *dto.SweepResult {
	scanned, newDeals, errors := counters.snapshot()
	run.Status = entity.SweepStatusFailed
	run.Scanned = scanned
	run.NewDeals = newDeals
	run.ErrorCount = errors + 1
	run.ErrorMessage = sql.NullString{String: cause.Error(), Valid: true}
	run.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	s.publishStatus(ctx, run)

	s.logger.Error("Market sweep failed", logger.ErrorField(cause),
		logger.StringField("run_id", run.ID))

	return &dto.SweepResult{
		RunID:    run.ID,
		Status:   string(run.Status),
		Scanned:  scanned,
		NewDeals: newDeals,
		Errors:   run.ErrorCount,
	}
}

func (s *SweepService) enterStage(ctx context.Context, run *entity.SweepRun, stage entity.SweepStage, counters *sweepCounters) {
	scanned, newDeals, errors := counters.snapshot()
	run.Stage = stage
	run.Scanned = scanned
	run.NewDeals = newDeals
	run.ErrorCount = errors
	s.publishStatus(ctx, run)
}

func (s *SweepService) publishStatus(ctx context.Context, run *entity.SweepRun) {
	if err := s.runRepo.Update(ctx, run); err != nil {
		s.logger.Error("Failed to persist run progress", logger.ErrorField(err),
			logger.StringField("run_id", run.ID))
	}
	if s.taskRepo == nil {
		return
	}
	status := &dto.TaskStatus{
		TaskID:    run.ID,
		Status:    string(run.Status),
		Stage:     string(run.Stage),
		Scanned:   run.Scanned,
		NewDeals:  run.NewDeals,
		Errors:    run.ErrorCount,
		Error:     run.ErrorMessage.String,
		StartedAt: run.StartedAt,
	}
	if err := s.taskRepo.Set(ctx, status); err != nil {
		s.logger.Error("Failed to publish task status", logger.ErrorField(err),
			logger.StringField("run_id", run.ID))
	}
}

// runFastSweep processes the general RSS sources concurrently with a bounded
// worker pool. No AI call is made on this path; entries are mapped straight
// onto the signal skeleton with the source's configured type and the flat
// conviction baseline. A single source's failure never aborts its siblings.
func (s *SweepService) runFastSweep(ctx context.Context, sources []entity.Source, counters *sweepCounters) {
	sem := make(chan struct{}, s.cfg.Sweep.MaxConcurrentFetches)
	var wg sync.WaitGroup

	for _, source := range sources {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		source := source
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s.logger.Info("Fetching RSS feed",
				logger.StringField("source", source.Name),
				logger.StringField("signal_type", string(source.SignalType)),
			)

			entries, err := s.fetcher.Fetch(ctx, source.URL)
			if err != nil {
				s.logger.Error("Failed to fetch source feed", logger.ErrorField(err),
					logger.StringField("source", source.Name))
				counters.addError()
				return
			}

			for _, entry := range entries {
				counters.addScanned(1)
				signal := fastSignalFromEntry(source, entry)
				created, err := s.signalRepo.SaveIfNew(ctx, &signal, repository.DedupByLink)
				if err != nil {
					s.logger.Warn("Failed to save feed entry", logger.ErrorField(err),
						logger.StringField("title", utils.Truncate(entry.Title, 50)))
					counters.addError()
					continue
				}
				if created {
					counters.addNewDeals(1)
				} else {
					s.logger.Debug("Duplicate link, skipping",
						logger.StringField("link", utils.Truncate(entry.Link, 50)))
				}
			}
		})
	}

	wg.Wait()
}

// watchlistHit is one feed entry queued for deep extraction.
type watchlistHit struct {
	target entity.WatchlistTarget
	entry  dto.RawEntry
}

// runWatchlistScan fetches targeted news per monitored company and hands
// hits to a separate extraction worker pool, so slow model calls never stall
// the I/O-bound fetches.
func (s *SweepService) runWatchlistScan(ctx context.Context, counters *sweepCounters) {
	targets, err := s.watchlistRepo.GetActiveTargets(ctx, common.DefaultTenantID)
	if err != nil {
		s.logger.Error("Failed to run watchlist scan", logger.ErrorField(err))
		counters.addError()
		return
	}
	if len(targets) == 0 {
		return
	}

	queue := make(chan watchlistHit, s.cfg.Sweep.ExtractionQueueSize)

	var extractWG sync.WaitGroup
	for i := 0; i < s.cfg.Sweep.MaxConcurrentExtractions; i++ {
		extractWG.Add(1)
		utils.GoSafe(func() {
			defer extractWG.Done()
			for hit := range queue {
				if !utils.ShouldContinue(ctx, s.logger) {
					continue
				}
				s.processWatchlistHit(ctx, hit.target, hit.entry, counters)
			}
		})
	}

	sem := make(chan struct{}, s.cfg.Sweep.MaxConcurrentFetches)
	var fetchWG sync.WaitGroup
	for _, target := range targets {
		if target.CompanyName == "" {
			continue
		}
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		target := target
		fetchWG.Add(1)
		utils.GoSafe(func() {
			defer fetchWG.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s.logger.Info("Scanning watchlist target",
				logger.StringField("company", target.CompanyName))

			entries, err := s.fetcher.Fetch(ctx, fetcher.WatchlistQueryURL(target.CompanyName))
			if err != nil {
				s.logger.Error("Failed to fetch watchlist feed", logger.ErrorField(err),
					logger.StringField("company", target.CompanyName))
				counters.addError()
				return
			}
			if len(entries) > s.cfg.Sweep.EntriesPerTarget {
				entries = entries[:s.cfg.Sweep.EntriesPerTarget]
			}
			for _, entry := range entries {
				queue <- watchlistHit{target: target, entry: entry}
			}
		})
	}

	fetchWG.Wait()
	close(queue)
	extractWG.Wait()
}

func (s *SweepService) processWatchlistHit(ctx context.Context, target entity.WatchlistTarget, entry dto.RawEntry, counters *sweepCounters) {
	fullText := entry.Title + "\n\n" + entry.Summary
	if body, err := s.fetcher.FetchArticleText(ctx, entry.Link); err == nil && body != "" {
		fullText = entry.Title + "\n\n" + body
	}

	result, err := s.extractor.Extract(ctx, fullText, "")
	if err != nil {
		s.logger.Error("Error processing watchlist item", logger.ErrorField(err),
			logger.StringField("company", target.CompanyName))
		counters.addError()
		return
	}

	signal := signalFromExtraction(result)
	// Extraction may hallucinate a different company; force the name to the
	// monitored target to keep the linkage.
	signal.CompanyName = target.CompanyName
	signal.Analysis = "[WATCHLIST ALERT] " + signal.Analysis
	signal.Headline = entry.Title
	signal.Source = "Google News RSS"
	signal.SourceLink = entry.Link
	signal.PublishedAt = entry.PublishedAt
	signal.QuerySource = "watchlist_hit"
	signal.TenantID = target.TenantID
	signal.SourceFamily = entity.SourceFamilyRSSNews
	signal.ConvictionScore = 90

	lowerTitle := strings.ToLower(entry.Title)
	if strings.Contains(lowerTitle, "acquisition") || strings.Contains(lowerTitle, "investment") {
		signal.SignalType = entity.SignalTypeGrowth
	} else {
		signal.SignalType = entity.SignalTypeRescue
	}

	profile, err := s.enricher.Enrich(ctx, target.CompanyName)
	if err != nil {
		s.logger.Error("Enrichment failed for watchlist target", logger.ErrorField(err),
			logger.StringField("company", target.CompanyName))
	}
	ApplyProfile(signal, profile)

	created, err := s.signalRepo.SaveIfNew(ctx, signal, repository.DedupByCompany)
	if err != nil {
		s.logger.Error("Failed to save watchlist signal", logger.ErrorField(err),
			logger.StringField("company", target.CompanyName))
		counters.addError()
		return
	}
	if created {
		counters.addNewDeals(1)
		s.logger.Info("Watchlist hit found", logger.StringField("company", target.CompanyName))
	}
}

// runShadowMarketScan pulls objective registry filings for each monitored
// company and persists the ones clearing the conviction floor. Enrichment
// calls are serialized behind the registry rate limiter.
func (s *SweepService) runShadowMarketScan(ctx context.Context, counters *sweepCounters) {
	targets, err := s.watchlistRepo.GetActiveTargets(ctx, common.DefaultTenantID)
	if err != nil {
		s.logger.Error("Failed to run shadow market scan", logger.ErrorField(err))
		counters.addError()
		return
	}

	for _, target := range targets {
		if target.CompanyName == "" {
			continue
		}
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}

		s.logger.Info("Checking shadow market",
			logger.StringField("company", target.CompanyName))

		companyNumber, err := s.enricher.SearchCompanyNumber(ctx, target.CompanyName)
		if err != nil {
			s.logger.Error("Registry search failed", logger.ErrorField(err),
				logger.StringField("company", target.CompanyName))
			counters.addError()
			continue
		}
		if companyNumber == "" {
			continue
		}

		tenureYears := 0
		profile, err := s.enricher.Enrich(ctx, target.CompanyName)
		if err != nil {
			s.logger.Warn("Profile fetch failed, tenure unknown", logger.ErrorField(err),
				logger.StringField("company", target.CompanyName))
		}
		if profile != nil {
			tenureYears = profile.TenureYears(time.Now().UTC())
		}

		charges, err := s.enricher.FetchCharges(ctx, companyNumber)
		if err != nil {
			counters.addError()
		}
		pscs, err := s.enricher.FetchPersonsWithControl(ctx, companyNumber)
		if err != nil {
			counters.addError()
		}

		events := append(capEvents(charges), capEvents(pscs)...)
		for i := range events {
			events[i].TenureYears = tenureYears
			events[i].CompanyNumber = companyNumber
		}

		for _, event := range events {
			lead := s.shadow.NormalizeEvent(event, target.CompanyName)
			if !s.shadow.ShouldPersist(lead) {
				continue
			}
			signal := s.shadow.MapToSignal(lead)
			signal.TenantID = target.TenantID

			created, err := s.signalRepo.SaveIfNew(ctx, &signal, repository.DedupByHeadlineAndCompany)
			if err != nil {
				s.logger.Error("Failed to save shadow market signal", logger.ErrorField(err),
					logger.StringField("company", target.CompanyName))
				counters.addError()
				continue
			}
			if created {
				counters.addNewDeals(1)
				s.logger.Info("Shadow market signal found",
					logger.StringField("company", target.CompanyName),
					logger.StringField("signal_type", string(lead.SignalType)),
				)
			}
		}
	}
}

func capEvents(events []dto.RegistryEvent) []dto.RegistryEvent {
	if len(events) > maxRegistryEventsPerKind {
		return events[:maxRegistryEventsPerKind]
	}
	return events
}

// fastSignalFromEntry maps a raw feed entry directly onto the signal
// skeleton without any AI processing.
func fastSignalFromEntry(source entity.Source, entry dto.RawEntry) entity.Signal {
	analysis := entry.Summary
	if analysis == "" {
		analysis = "No summary available"
	}
	analysis = utils.Truncate(analysis, 500)

	companyName := entry.Title
	if idx := strings.Index(entry.Title, " - "); idx > 0 {
		companyName = strings.TrimSpace(entry.Title[:idx])
	} else {
		companyName = utils.Truncate(companyName, 50)
	}

	return entity.Signal{
		TenantID:        common.GlobalTenantTag,
		CompanyName:     companyName,
		Headline:        entry.Title,
		Analysis:        analysis,
		Source:          source.Name,
		SourceLink:      entry.Link,
		PublishedAt:     entry.PublishedAt,
		IngestedAt:      time.Now().UTC(),
		QuerySource:     "rss_fast_sweep",
		SignalType:      source.SignalType,
		SourceFamily:    entity.SourceFamilyRSSNews,
		ConvictionScore: entity.DefaultConvictionScore,
	}
}
