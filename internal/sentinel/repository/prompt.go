package repository

import (
	"fmt"
	"strings"

	"golang-deal-sentinel/internal/sentinel/sector"
)

// BuildExtractionPrompt constructs the sector-specific system prompt for
// deep-mode extraction. The model is instructed to return strictly valid
// JSON containing the sector schema plus the intelligence scoring fields.
func BuildExtractionPrompt(sectorCtx sector.Context) string {
	schemaList := strings.Join(append(append([]string{}, sectorCtx.ExtractionSchema...),
		"signal_type", "conviction_score", "sentiment_score", "momentum_score"), ", ")

	promptTemplate := `You are an expert Analyst specializing in %s.
Your task is to analyze the provided text and extract specific intelligence.

TONE RULES:
Ensure high accuracy and focus on key commercial terms. %s

EXTRACTION SCHEMA:
Extract the following fields into a valid JSON object:
[%s]

INTELLIGENCE RULES:
- signal_type: 'RESCUE' if distressed/insolvent, 'GROWTH' if expansion/M&A.
- conviction_score: 0-100 indicating relevance and quality of the lead.
- sentiment_score: -1.0 (very negative) to 1.0 (very positive) about the company's future.
- momentum_score: 0.0 to 1.0 based on how active the sector/company is.

Output strictly valid JSON only. Do not include markdown formatting or explanations.`

	return fmt.Sprintf(promptTemplate, sectorCtx.Label, sectorCtx.ToneRules, schemaList)
}
