package sector

// Key identifies an extraction/scoring profile. The set is closed; unknown
// keys resolve to the default context instead of erroring.
type Key string

const (
	KeyDistressedCorporate Key = "distressed_corporate"
	KeyRealEstate          Key = "real_estate"
	KeyTechGrowth          Key = "tech_growth"
	KeyMarine              Key = "marine"
	KeyPrivateCredit       Key = "pvt_credit"
	KeyMidMarketMA         Key = "mid_market_ma"

	DefaultKey = KeyDistressedCorporate
)

// Context is a named extraction/scoring profile: the analyst persona, the
// tone rules injected into the system prompt, and the extraction schema keys
// the model must return. Loaded once at startup, read-only afterwards.
type Context struct {
	Key              Key
	Label            string
	ToneRules        string
	ExtractionSchema []string
}

var baseSchema = []string{"company_name", "company_description", "ebitda", "ownership", "advisor", "process_status"}

var contexts = map[Key]Context{
	KeyDistressedCorporate: {
		Key:              KeyDistressedCorporate,
		Label:            "Distressed Corporate Situations",
		ToneRules:        "Focus on insolvency markers, administration filings, creditor pressure, and covenant breaches.",
		ExtractionSchema: baseSchema,
	},
	KeyRealEstate: {
		Key:              KeyRealEstate,
		Label:            "Commercial Real Estate",
		ToneRules:        "Focus on yield, occupancy rates, cap rate expansion, operational status, and refinancing pressure.",
		ExtractionSchema: append(append([]string{}, baseSchema...), "asset_type", "location"),
	},
	KeyTechGrowth: {
		Key:              KeyTechGrowth,
		Label:            "Tech Growth and Venture",
		ToneRules:        "Focus on valuation metrics, burn rate, investment rounds, and revenue multiples.",
		ExtractionSchema: append(append([]string{}, baseSchema...), "revenue", "funding_stage"),
	},
	KeyMarine: {
		Key:              KeyMarine,
		Label:            "Marine and Shipping Assets",
		ToneRules:        "Focus on vessel specifications, charter rates, route details, and fleet age.",
		ExtractionSchema: append(append([]string{}, baseSchema...), "vessel_type", "charter_status"),
	},
	KeyPrivateCredit: {
		Key:              KeyPrivateCredit,
		Label:            "Private Credit",
		ToneRules:        "Focus on EBITDA add-backs, covenant breaches, and upcoming refinancing cliffs.",
		ExtractionSchema: append(append([]string{}, baseSchema...), "debt_facility", "maturity"),
	},
	KeyMidMarketMA: {
		Key:              KeyMidMarketMA,
		Label:            "Mid-Market M&A",
		ToneRules:        "Focus on deal multiples, lead advisors, and buy-and-build potential.",
		ExtractionSchema: append(append([]string{}, baseSchema...), "ev", "deal_multiple"),
	},
}

// Lookup resolves a sector key to its context, falling back to the default
// context when the key is empty or unrecognized.
func Lookup(key string) Context {
	if ctx, ok := contexts[Key(key)]; ok {
		return ctx
	}
	return contexts[DefaultKey]
}

// Keys returns all configured sector keys.
func Keys() []Key {
	keys := make([]Key, 0, len(contexts))
	for k := range contexts {
		keys = append(keys, k)
	}
	return keys
}
