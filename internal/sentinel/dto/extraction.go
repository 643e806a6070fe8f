package dto

// ExtractionResult mirrors the JSON object the model is instructed to return
// in deep mode. Fields missing from the model output stay zero-valued; they
// are never defaulted silently at this layer.
type ExtractionResult struct {
	CompanyName        string  `json:"company_name"`
	CompanyDescription string  `json:"company_description"`
	EBITDA             string  `json:"ebitda"`
	EV                 string  `json:"ev"`
	Revenue            string  `json:"revenue"`
	Ownership          string  `json:"ownership"`
	Advisor            string  `json:"advisor"`
	ProcessStatus      string  `json:"process_status"`
	SignalType         string  `json:"signal_type"`
	ConvictionScore    int     `json:"conviction_score"`
	SentimentScore     float64 `json:"sentiment_score"`
	MomentumScore      float64 `json:"momentum_score"`

	// PresentKeys holds the top-level keys actually returned by the model,
	// used to validate the sector schema without failing the item.
	PresentKeys map[string]bool `json:"-"`
}

// MissingKeys returns the schema keys absent from the model output.
func (r *ExtractionResult) MissingKeys(schema []string) []string {
	var missing []string
	for _, key := range schema {
		if !r.PresentKeys[key] {
			missing = append(missing, key)
		}
	}
	return missing
}
