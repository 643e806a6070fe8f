package dto

// RegistryEventType classifies a raw companies-registry filing.
type RegistryEventType string

const (
	RegistryEventCharge        RegistryEventType = "charge"
	RegistryEventPSC           RegistryEventType = "psc"
	RegistryEventGenericFiling RegistryEventType = "generic_filing"
)

// RegistryEvent is a raw filing pulled from the companies registry before
// shadow-market normalization.
type RegistryEvent struct {
	Type          RegistryEventType `json:"type"`
	Description   string            `json:"description"`
	TenureYears   int               `json:"tenure_years"`
	CompanyNumber string            `json:"company_number"`
	DeliveredOn   string            `json:"delivered_on,omitempty"`
}
