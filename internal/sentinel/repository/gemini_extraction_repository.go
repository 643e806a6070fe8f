package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-deal-sentinel/internal/sentinel/config"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/sector"
	"golang-deal-sentinel/pkg/logger"
	"golang-deal-sentinel/pkg/utils"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiExtractionRepository is an implementation of ExtractionRepository
// that uses the Google Gemini API constrained to JSON output.
type geminiExtractionRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
}

// NewGeminiExtractionRepository creates a new instance of geminiExtractionRepository.
func NewGeminiExtractionRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (ExtractionRepository, error) {
	if genAiClient == nil {
		return nil, fmt.Errorf("gemini client is required for deep extraction")
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &geminiExtractionRepository{
		cfg:            cfg,
		logger:         log,
		genAiClient:    genAiClient,
		requestLimiter: requestLimiter,
	}, nil
}

// Extract runs deep-mode extraction: a sector-specific system prompt, a JSON
// response constraint, and schema validation. Missing schema keys are logged
// but do not fail the item; a non-JSON response does.
func (r *geminiExtractionRepository) Extract(ctx context.Context, sourceText string, sectorKey string) (*dto.ExtractionResult, error) {
	sectorCtx := sector.Lookup(sectorKey)
	log := r.logger.With(
		logger.StringField("sector", string(sectorCtx.Key)),
	)

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{
			{Text: BuildExtractionPrompt(sectorCtx)},
			{Text: fmt.Sprintf("Input Text:\n%q", sourceText)},
		}},
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	respText := strings.TrimSpace(resp.Text())

	var rawFields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(respText), &rawFields); err != nil {
		log.Error("Model did not return valid JSON",
			logger.StringField("response_text", utils.Truncate(respText, 500)))
		return nil, fmt.Errorf("model did not return valid JSON: %w", err)
	}

	var result dto.ExtractionResult
	if err := json.Unmarshal([]byte(respText), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extraction result: %w", err)
	}

	result.PresentKeys = make(map[string]bool, len(rawFields))
	for key := range rawFields {
		result.PresentKeys[key] = true
	}

	if missing := result.MissingKeys(sectorCtx.ExtractionSchema); len(missing) > 0 {
		log.Warn("Extraction validation failed, missing schema keys",
			logger.Field("missing_keys", missing))
	}

	return &result, nil
}
