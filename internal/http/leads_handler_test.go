package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordrein/webshop/internal/leads"
)

type leadsRepoMock struct {
	submitted []*leads.Lead
	err       error
}

func (m *leadsRepoMock) Submit(_ context.Context, lead *leads.Lead) error {
	if m.err != nil {
		return m.err
	}
	lead.ID = "lead-1"
	m.submitted = append(m.submitted, lead)
	return nil
}

func (m *leadsRepoMock) ListRecent(context.Context, int) ([]*leads.Lead, error) {
	return m.submitted, nil
}

func TestSubmitLead_Success(t *testing.T) {
	repo := &leadsRepoMock{}
	handler := NewLeadsHandler(repo)

	body := `{
		"service": "deep-clean",
		"property_type": "apartment",
		"size": 75,
		"frequency": "once",
		"extras": ["windows"],
		"contact": {"name": "Jo Vermeer", "email": "jo@example.com", "postcode": "1012 AB"},
		"source": "quote-wizard"
	}`
	rec := httptest.NewRecorder()
	handler.Submit(rec, httptest.NewRequest("POST", "/leads", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.submitted, 1)
	assert.Equal(t, "deep-clean", repo.submitted[0].Service)

	var resp leads.Lead
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "lead-1", resp.ID)
}

func TestSubmitLead_ValidationError(t *testing.T) {
	handler := NewLeadsHandler(&leadsRepoMock{})

	body := `{"service": "", "contact": {"name": "Jo", "email": "jo@example.com"}}`
	rec := httptest.NewRecorder()
	handler.Submit(rec, httptest.NewRequest("POST", "/leads", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Code)
}

func TestSubmitLead_InvalidBody(t *testing.T) {
	handler := NewLeadsHandler(&leadsRepoMock{})

	rec := httptest.NewRecorder()
	handler.Submit(rec, httptest.NewRequest("POST", "/leads", strings.NewReader("{oops")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitLead_ClientCannotPickID(t *testing.T) {
	repo := &leadsRepoMock{}
	handler := NewLeadsHandler(repo)

	body := `{
		"id": "chosen-by-client",
		"service": "deep-clean",
		"contact": {"name": "Jo", "email": "jo@example.com"}
	}`
	rec := httptest.NewRecorder()
	handler.Submit(rec, httptest.NewRequest("POST", "/leads", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "lead-1", repo.submitted[0].ID)
}

func TestSubmitLead_RepositoryError(t *testing.T) {
	handler := NewLeadsHandler(&leadsRepoMock{err: assert.AnError})

	body := `{"service": "deep-clean", "contact": {"name": "Jo", "email": "jo@example.com"}}`
	rec := httptest.NewRecorder()
	handler.Submit(rec, httptest.NewRequest("POST", "/leads", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
