package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/common"
	"golang-deal-sentinel/pkg/logger"
)

// IngestService handles the deep-extraction ingestion paths: manual text,
// historical batch import, and watchlist bulk import.
type IngestService struct {
	logger        *logger.Logger
	extractor     repository.ExtractionRepository
	enricher      repository.EnrichmentRepository
	signalRepo    repository.SignalRepository
	watchlistRepo repository.WatchlistRepository
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	log *logger.Logger,
	extractor repository.ExtractionRepository,
	enricher repository.EnrichmentRepository,
	signalRepo repository.SignalRepository,
	watchlistRepo repository.WatchlistRepository,
) *IngestService {
	return &IngestService{
		logger:        log,
		extractor:     extractor,
		enricher:      enricher,
		signalRepo:    signalRepo,
		watchlistRepo: watchlistRepo,
	}
}

// ExtractSignal runs deep-mode extraction on free text and enriches the
// resulting signal with registry data. It does not persist.
func (s *IngestService) ExtractSignal(ctx context.Context, sourceText, sectorKey string) (*entity.Signal, error) {
	result, err := s.extractor.Extract(ctx, sourceText, sectorKey)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	signal := signalFromExtraction(result)

	if signal.CompanyName != "" {
		profile, err := s.enricher.Enrich(ctx, signal.CompanyName)
		if err != nil {
			s.logger.Error("Enrichment failed", logger.ErrorField(err),
				logger.StringField("company_name", signal.CompanyName))
		}
		ApplyProfile(signal, profile)
	}

	return signal, nil
}

// IngestText extracts, enriches, and persists one manual intelligence item.
// Dedup is by company name: a second detection for the same company is
// dropped even when the headline differs.
func (s *IngestService) IngestText(ctx context.Context, req dto.IngestRequest) (*entity.Signal, bool, error) {
	log := s.logger.With(logger.StringField("source_origin", req.SourceOrigin))
	log.Info("Received intelligence ingestion request")

	signal, err := s.ExtractSignal(ctx, req.SourceText, req.Sector)
	if err != nil {
		return nil, false, err
	}

	signal.Source = "manual_intelligence"
	signal.QuerySource = req.SourceOrigin
	signal.TenantID = req.TenantID
	if signal.TenantID == "" {
		signal.TenantID = common.DefaultTenantID
	}

	created, err := s.signalRepo.SaveIfNew(ctx, signal, repository.DedupByCompany)
	if err != nil {
		return nil, false, fmt.Errorf("failed to persist signal: %w", err)
	}
	if !created {
		log.Info("Duplicate deal found, skipping", logger.StringField("company", signal.CompanyName))
	}
	return signal, created, nil
}

// ImportHistorical bulk-imports structured historical deals, bypassing AI
// extraction. Writes are batch-committed.
func (s *IngestService) ImportHistorical(ctx context.Context, deals []dto.HistoricalDeal) (int, error) {
	log := s.logger.With(logger.StringField("operation", "historical_batch_import"))
	log.Info("Received batch import request", logger.IntField("count", len(deals)))

	signals := make([]entity.Signal, 0, len(deals))
	for _, deal := range deals {
		if deal.CompanyName == "" {
			continue
		}
		source := deal.Source
		if source == "" {
			source = "historical_import"
		}
		signals = append(signals, entity.Signal{
			TenantID:        common.GlobalTenantTag,
			CompanyName:     deal.CompanyName,
			Headline:        deal.Headline,
			Analysis:        deal.Analysis,
			SignalType:      entity.SignalType(deal.SignalType),
			ConvictionScore: deal.ConvictionScore,
			SentimentScore:  deal.SentimentScore,
			EBITDA:          deal.EBITDA,
			EV:              deal.EV,
			Revenue:         deal.Revenue,
			Advisor:         deal.Advisor,
			Ownership:       deal.Ownership,
			Source:          source,
			PublishedAt:     deal.PublishedAt,
			SourceFamily:    entity.SourceFamilyHistoricalImport,
			QuerySource:     "historical_import",
		})
	}

	imported, err := s.signalRepo.CreateInBatches(ctx, signals)
	if err != nil {
		return 0, err
	}
	log.Info("Batch import completed", logger.IntField("total", imported))
	return imported, nil
}

// ImportWatchlistCSV parses an uploaded CSV of watchlist targets. The file
// must carry a "company" column; "notes" is optional. Headers are normalized
// case-insensitively.
func (s *IngestService) ImportWatchlistCSV(ctx context.Context, tenantID, filename string, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	companyIdx, notesIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "company":
			companyIdx = i
		case "notes":
			notesIdx = i
		}
	}
	if companyIdx < 0 {
		return 0, fmt.Errorf("missing required column: 'Company'")
	}

	if tenantID == "" {
		tenantID = common.DefaultTenantID
	}

	var targets []entity.WatchlistTarget
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("Skipping malformed CSV row", logger.ErrorField(err))
			continue
		}
		if companyIdx >= len(record) {
			continue
		}
		companyName := strings.TrimSpace(record[companyIdx])
		if companyName == "" {
			continue
		}
		notes := ""
		if notesIdx >= 0 && notesIdx < len(record) {
			notes = strings.TrimSpace(record[notesIdx])
		}
		targets = append(targets, entity.WatchlistTarget{
			TenantID:         tenantID,
			CompanyName:      companyName,
			Notes:            notes,
			MonitoringActive: true,
			SourceFile:       filename,
		})
	}

	imported, err := s.watchlistRepo.CreateInBatches(ctx, targets)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Watchlist import completed",
		logger.StringField("filename", filename),
		logger.IntField("imported", imported),
	)
	return imported, nil
}

// signalFromExtraction maps a deep-mode extraction result onto a signal.
// Fields the model omitted stay empty rather than being defaulted here;
// persistence applies the mandatory defaults.
func signalFromExtraction(result *dto.ExtractionResult) *entity.Signal {
	return &entity.Signal{
		CompanyName:     strings.TrimSpace(result.CompanyName),
		Analysis:        result.CompanyDescription,
		SignalType:      entity.SignalType(result.SignalType),
		ConvictionScore: result.ConvictionScore,
		SentimentScore:  result.SentimentScore,
		MomentumScore:   result.MomentumScore,
		EBITDA:          result.EBITDA,
		EV:              result.EV,
		Revenue:         result.Revenue,
		Ownership:       result.Ownership,
		Advisor:         result.Advisor,
		ProcessStatus:   result.ProcessStatus,
		IngestedAt:      time.Now().UTC(),
	}
}

// ApplyProfile embeds an enrichment result into a signal. A nil profile is a
// no-op.
func ApplyProfile(signal *entity.Signal, profile *entity.CompanyProfile) {
	if profile == nil {
		return
	}
	signal.RegistrationNumber = profile.RegistrationNumber
	signal.IncorporationDate = profile.IncorporationDate
	signal.SICCodes = profile.SICCodes
	signal.RegisteredAddress = profile.RegisteredAddress
	signal.CompanyStatus = profile.CompanyStatus
	signal.CompanyType = profile.CompanyType
}
