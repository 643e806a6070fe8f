package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/config"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// StubRegistrationNumber marks enrichment results produced without a live
// registry credential.
const StubRegistrationNumber = "00000000"

// minCompanyNameLength short-circuits lookups that could never resolve.
const minCompanyNameLength = 2

// companiesHouseRepository enriches companies via the Companies House API.
// Lookups are rate-limited against the registry quota and cached per
// normalized company name for the configured TTL.
type companiesHouseRepository struct {
	cfg     *config.Config
	logger  *logger.Logger
	client  *http.Client
	cache   *cache.Cache
	limiter *rate.Limiter
}

// NewCompaniesHouseRepository creates a new EnrichmentRepository backed by
// the Companies House API.
func NewCompaniesHouseRepository(cfg *config.Config, log *logger.Logger) EnrichmentRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.CompaniesHouse.MaxRequestPerMinute)
	return &companiesHouseRepository{
		cfg:     cfg,
		logger:  log,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(cfg.CompaniesHouse.CacheTTL, 2*cfg.CompaniesHouse.CacheTTL),
		limiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// Enrich searches the registry by name and fetches the full company profile.
// Returns (nil, nil) for names too short to resolve. Without a credential it
// returns deterministic stub data so the rest of the pipeline stays
// exercisable.
func (r *companiesHouseRepository) Enrich(ctx context.Context, companyName string) (*entity.CompanyProfile, error) {
	if len(strings.TrimSpace(companyName)) < minCompanyNameLength {
		r.logger.Warn("Company name too short for enrichment", logger.StringField("company_name", companyName))
		return nil, nil
	}

	cacheKey := strings.ToLower(strings.TrimSpace(companyName))
	if cached, found := r.cache.Get(cacheKey); found {
		r.logger.Debug("Returning cached company profile", logger.StringField("company_name", companyName))
		return cached.(*entity.CompanyProfile), nil
	}

	if r.cfg.CompaniesHouse.APIKey == "" {
		r.logger.Warn("No Companies House API key configured, returning stub data",
			logger.StringField("company_name", companyName))
		return stubProfile(), nil
	}

	companyNumber, err := r.SearchCompanyNumber(ctx, companyName)
	if err != nil {
		return nil, err
	}
	if companyNumber == "" {
		r.logger.Info("Company not found in registry search", logger.StringField("company_name", companyName))
		return nil, nil
	}

	profile, err := r.fetchProfile(ctx, companyNumber)
	if err != nil {
		return nil, err
	}

	if profile != nil {
		r.cache.Set(cacheKey, profile, cache.DefaultExpiration)
		r.logger.Info("Enriched company data",
			logger.StringField("company_name", companyName),
			logger.StringField("registration_number", profile.RegistrationNumber),
		)
	}
	return profile, nil
}

// SearchCompanyNumber resolves a company name to its registry identifier.
func (r *companiesHouseRepository) SearchCompanyNumber(ctx context.Context, companyName string) (string, error) {
	if r.cfg.CompaniesHouse.APIKey == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/search/companies?q=%s&items_per_page=1",
		r.cfg.CompaniesHouse.BaseURL, url.QueryEscape(companyName))

	var result struct {
		Items []struct {
			CompanyNumber string `json:"company_number"`
		} `json:"items"`
	}
	if err := r.get(ctx, endpoint, &result); err != nil {
		return "", fmt.Errorf("registry search failed: %w", err)
	}
	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[0].CompanyNumber, nil
}

func (r *companiesHouseRepository) fetchProfile(ctx context.Context, companyNumber string) (*entity.CompanyProfile, error) {
	endpoint := fmt.Sprintf("%s/company/%s", r.cfg.CompaniesHouse.BaseURL, companyNumber)

	var result struct {
		CompanyNumber           string   `json:"company_number"`
		DateOfCreation          string   `json:"date_of_creation"`
		SICCodes                []string `json:"sic_codes"`
		CompanyStatus           string   `json:"company_status"`
		Type                    string   `json:"type"`
		RegisteredOfficeAddress struct {
			AddressLine1 string `json:"address_line_1"`
			AddressLine2 string `json:"address_line_2"`
			Locality     string `json:"locality"`
			PostalCode   string `json:"postal_code"`
		} `json:"registered_office_address"`
	}
	if err := r.get(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch company profile %s: %w", companyNumber, err)
	}

	var addressParts []string
	for _, part := range []string{
		result.RegisteredOfficeAddress.AddressLine1,
		result.RegisteredOfficeAddress.AddressLine2,
		result.RegisteredOfficeAddress.Locality,
		result.RegisteredOfficeAddress.PostalCode,
	} {
		if part != "" {
			addressParts = append(addressParts, part)
		}
	}

	return &entity.CompanyProfile{
		RegistrationNumber: result.CompanyNumber,
		IncorporationDate:  result.DateOfCreation,
		SICCodes:           result.SICCodes,
		RegisteredAddress:  strings.Join(addressParts, ", "),
		CompanyStatus:      result.CompanyStatus,
		CompanyType:        result.Type,
	}, nil
}

// FetchCharges returns registered charges/mortgages for a company. Degrades
// to an empty list when no credential is configured.
func (r *companiesHouseRepository) FetchCharges(ctx context.Context, companyNumber string) ([]dto.RegistryEvent, error) {
	if r.cfg.CompaniesHouse.APIKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/company/%s/charges", r.cfg.CompaniesHouse.BaseURL, companyNumber)

	var result struct {
		Items []struct {
			DeliveredOn    string `json:"delivered_on"`
			Classification struct {
				Description string `json:"description"`
			} `json:"classification"`
			Particulars struct {
				Description string `json:"description"`
			} `json:"particulars"`
		} `json:"items"`
	}
	if err := r.get(ctx, endpoint, &result); err != nil {
		r.logger.Error("Failed to fetch charges", logger.ErrorField(err),
			logger.StringField("company_number", companyNumber))
		return nil, nil
	}

	events := make([]dto.RegistryEvent, 0, len(result.Items))
	for _, item := range result.Items {
		description := item.Particulars.Description
		if description == "" {
			description = item.Classification.Description
		}
		events = append(events, dto.RegistryEvent{
			Type:          dto.RegistryEventCharge,
			Description:   description,
			CompanyNumber: companyNumber,
			DeliveredOn:   item.DeliveredOn,
		})
	}
	return events, nil
}

// FetchPersonsWithControl returns PSC entries for a company. Degrades to an
// empty list when no credential is configured.
func (r *companiesHouseRepository) FetchPersonsWithControl(ctx context.Context, companyNumber string) ([]dto.RegistryEvent, error) {
	if r.cfg.CompaniesHouse.APIKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/company/%s/persons-with-significant-control",
		r.cfg.CompaniesHouse.BaseURL, companyNumber)

	var result struct {
		Items []struct {
			Name       string `json:"name"`
			Kind       string `json:"kind"`
			NotifiedOn string `json:"notified_on"`
		} `json:"items"`
	}
	if err := r.get(ctx, endpoint, &result); err != nil {
		r.logger.Error("Failed to fetch persons with significant control", logger.ErrorField(err),
			logger.StringField("company_number", companyNumber))
		return nil, nil
	}

	events := make([]dto.RegistryEvent, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, dto.RegistryEvent{
			Type:          dto.RegistryEventPSC,
			Description:   strings.TrimSpace(item.Name + " " + item.Kind),
			CompanyNumber: companyNumber,
			DeliveredOn:   item.NotifiedOn,
		})
	}
	return events, nil
}

func (r *companiesHouseRepository) get(ctx context.Context, endpoint string, out interface{}) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for registry rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Companies House uses basic auth with the key as username.
	req.SetBasicAuth(r.cfg.CompaniesHouse.APIKey, "")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode registry response: %w", err)
	}
	return nil
}

func stubProfile() *entity.CompanyProfile {
	return &entity.CompanyProfile{
		RegistrationNumber: StubRegistrationNumber,
		IncorporationDate:  "2020-01-01",
		SICCodes:           []string{"99999 - Other service activities"},
		RegisteredAddress:  "1 Example Street, London, EC1A 1BB",
		CompanyStatus:      "active",
		CompanyType:        "ltd",
	}
}
