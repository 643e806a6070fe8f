package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/pkg/logger"
)

// ConvictionFloor is the minimum normalized score a registry-derived signal
// must reach to be forwarded to persistence. Registry events are objectively
// verifiable but noisy, so low-scoring ones are dropped outright.
const ConvictionFloor = 70

// pscGrowthMarkers identify institutional investment vehicles in a PSC event
// description.
var pscGrowthMarkers = []string{"fund", "llp", "private equity", "investment"}

// NormalizedLead is a registry event after shadow-market scoring, ready to be
// mapped onto the signal schema.
type NormalizedLead struct {
	CompanyName     string
	SignalType      entity.SignalType
	ConvictionScore int
	Analysis        string
	Event           dto.RegistryEvent
}

// ShadowMarketService transforms objective registry filings (charges, PSC
// changes) into growth and rescue signals.
type ShadowMarketService struct {
	logger *logger.Logger
}

// NewShadowMarketService creates a new ShadowMarketService.
func NewShadowMarketService(log *logger.Logger) *ShadowMarketService {
	return &ShadowMarketService{logger: log}
}

// NormalizeEvent assigns a signal type and conviction score to a raw registry
// event. The tenure rule is additive: it can raise a score to 70 but never
// lowers one set by the event rules.
func (s *ShadowMarketService) NormalizeEvent(event dto.RegistryEvent, companyName string) NormalizedLead {
	score := 50
	signalType := entity.SignalTypeRescue
	reason := "New regulatory filing detected"
	description := strings.ToLower(event.Description)

	switch {
	case strings.Contains(string(event.Type), "charge") || strings.Contains(description, "debenture"):
		signalType = entity.SignalTypeGrowth
		score = 85
		reason = "New Debt/Debenture registration (Potential M&A or expansion financing)"
	case strings.Contains(string(event.Type), "psc"):
		if containsAny(description, pscGrowthMarkers) {
			signalType = entity.SignalTypeGrowth
			score = 90
			reason = "Ownership change to Investment/PE vehicle (Confirmed M&A)"
		} else {
			reason = "Control change detected"
		}
	}

	// PE hold-period heuristic: long tenure suggests a likely exit.
	if event.TenureYears >= 5 {
		if score < ConvictionFloor {
			score = ConvictionFloor
		}
		reason += " | High-Likelihood Exit (PE hold > 5 years)"
	}

	return NormalizedLead{
		CompanyName:     companyName,
		SignalType:      signalType,
		ConvictionScore: score,
		Analysis:        reason,
		Event:           event,
	}
}

// ShouldPersist reports whether the lead clears the registry conviction floor.
func (s *ShadowMarketService) ShouldPersist(lead NormalizedLead) bool {
	return lead.ConvictionScore >= ConvictionFloor
}

// MapToSignal maps a normalized lead onto the signal schema.
func (s *ShadowMarketService) MapToSignal(lead NormalizedLead) entity.Signal {
	now := time.Now().UTC()
	metadata, err := json.Marshal(lead.Event)
	if err != nil {
		s.logger.Warn("Failed to marshal registry event metadata", logger.ErrorField(err))
		metadata = nil
	}

	return entity.Signal{
		CompanyName:     lead.CompanyName,
		Headline:        fmt.Sprintf("CH ALERT: %s", lead.Analysis),
		Analysis:        fmt.Sprintf("Companies House event detected for %s. Score: %d/100.", lead.CompanyName, lead.ConvictionScore),
		Source:          "Companies House API",
		SourceLink:      fmt.Sprintf("https://find-and-update.company-information.service.gov.uk/company/%s", lead.Event.CompanyNumber),
		PublishedAt:     now.Format(time.RFC3339),
		IngestedAt:      now,
		SignalType:      lead.SignalType,
		SourceFamily:    entity.SourceFamilyGovRegistry,
		ConvictionScore: lead.ConvictionScore,
		QuerySource:     "shadow_market_scan",
		Metadata:        metadata,
	}
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
