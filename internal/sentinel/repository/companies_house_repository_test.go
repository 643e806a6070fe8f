package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-deal-sentinel/internal/sentinel/config"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrichmentConfig(apiKey, baseURL string) *config.Config {
	return &config.Config{
		CompaniesHouse: config.CompaniesHouse{
			APIKey:              apiKey,
			BaseURL:             baseURL,
			MaxRequestPerMinute: 600,
			CacheTTL:            time.Minute,
		},
	}
}

func TestEnrich_ShortNameShortCircuits(t *testing.T) {
	repo := NewCompaniesHouseRepository(newEnrichmentConfig("key", "http://unused"), logger.NewNop())

	profile, err := repo.Enrich(context.Background(), "A")
	require.NoError(t, err)
	assert.Nil(t, profile)

	profile, err = repo.Enrich(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestEnrich_StubWithoutCredential(t *testing.T) {
	repo := NewCompaniesHouseRepository(newEnrichmentConfig("", "http://unused"), logger.NewNop())

	profile, err := repo.Enrich(context.Background(), "Acme Ltd")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, StubRegistrationNumber, profile.RegistrationNumber)
	assert.NotEmpty(t, profile.IncorporationDate)
}

func TestSearchCompanyNumber_EmptyWithoutCredential(t *testing.T) {
	repo := NewCompaniesHouseRepository(newEnrichmentConfig("", "http://unused"), logger.NewNop())

	number, err := repo.SearchCompanyNumber(context.Background(), "Acme Ltd")
	require.NoError(t, err)
	assert.Empty(t, number)
}

func TestEnrich_TwoStepLookupAndCache(t *testing.T) {
	var searchCalls, profileCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/companies":
			searchCalls++
			fmt.Fprint(w, `{"items":[{"company_number":"01234567"}]}`)
		case "/company/01234567":
			profileCalls++
			fmt.Fprint(w, `{
				"company_number": "01234567",
				"date_of_creation": "2015-06-01",
				"sic_codes": ["62012"],
				"company_status": "active",
				"type": "ltd",
				"registered_office_address": {
					"address_line_1": "1 Test Road",
					"locality": "Manchester",
					"postal_code": "M1 1AA"
				}
			}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	repo := NewCompaniesHouseRepository(newEnrichmentConfig("key", server.URL), logger.NewNop())

	profile, err := repo.Enrich(context.Background(), "Acme Ltd")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "01234567", profile.RegistrationNumber)
	assert.Equal(t, "2015-06-01", profile.IncorporationDate)
	assert.Equal(t, "1 Test Road, Manchester, M1 1AA", profile.RegisteredAddress)

	// Second lookup with different casing hits the cache.
	profile, err = repo.Enrich(context.Background(), "ACME LTD")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 1, searchCalls)
	assert.Equal(t, 1, profileCalls)
}

func TestFetchCharges_DegradesToEmpty(t *testing.T) {
	// No credential.
	repo := NewCompaniesHouseRepository(newEnrichmentConfig("", "http://unused"), logger.NewNop())
	events, err := repo.FetchCharges(context.Background(), "01234567")
	require.NoError(t, err)
	assert.Empty(t, events)

	// Upstream failure.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo = NewCompaniesHouseRepository(newEnrichmentConfig("key", server.URL), logger.NewNop())
	events, err = repo.FetchCharges(context.Background(), "01234567")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFetchCharges_MapsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company/01234567/charges", r.URL.Path)
		fmt.Fprint(w, `{"items":[
			{"delivered_on":"2024-02-01","classification":{"description":"charge-description"},"particulars":{"description":"Fixed and floating charge"}},
			{"delivered_on":"2024-01-15","classification":{"description":"charge-description"},"particulars":{"description":""}}
		]}`)
	}))
	defer server.Close()

	repo := NewCompaniesHouseRepository(newEnrichmentConfig("key", server.URL), logger.NewNop())
	events, err := repo.FetchCharges(context.Background(), "01234567")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, dto.RegistryEventCharge, events[0].Type)
	assert.Equal(t, "Fixed and floating charge", events[0].Description)
	// Particulars fall back to classification.
	assert.Equal(t, "charge-description", events[1].Description)
}

func TestFetchPersonsWithControl_MapsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[
			{"name":"Growth Capital Fund LP","kind":"corporate-entity-person-with-significant-control","notified_on":"2024-03-01"}
		]}`)
	}))
	defer server.Close()

	repo := NewCompaniesHouseRepository(newEnrichmentConfig("key", server.URL), logger.NewNop())
	events, err := repo.FetchPersonsWithControl(context.Background(), "01234567")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, dto.RegistryEventPSC, events[0].Type)
	assert.Contains(t, events[0].Description, "Growth Capital Fund LP")
	assert.Equal(t, "2024-03-01", events[0].DeliveredOn)
}
