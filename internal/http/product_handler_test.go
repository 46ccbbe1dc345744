package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordrein/webshop/internal/catalog"
)

type productCatalogMock struct {
	products []*catalog.Product
	err      error
}

func (m productCatalogMock) ListProducts(context.Context) ([]*catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m productCatalogMock) GetProductBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

func productsTestRouter(mock productCatalogMock) chi.Router {
	handler := NewProductHandler(mock)
	return testRouter(testSessionKey, func(r chi.Router) {
		r.Get("/products", handler.List)
		r.Get("/products/{slug}", handler.GetBySlug)
	})
}

func TestListProducts_Success(t *testing.T) {
	mock := productCatalogMock{products: []*catalog.Product{
		{ID: "prd-soap", Name: "Castile Soap Bar", Slug: "castile-soap-bar", Price: 12.50},
		{ID: "prd-glass", Name: "Glass Cleaner", Slug: "glass-cleaner", Price: 6.50},
	}}

	rec := httptest.NewRecorder()
	productsTestRouter(mock).ServeHTTP(rec, httptest.NewRequest("GET", "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProductsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "prd-soap", resp.Products[0].ID)
	assert.Equal(t, 12.50, resp.Products[0].Price)
}

func TestListProducts_EmptyCatalog(t *testing.T) {
	rec := httptest.NewRecorder()
	productsTestRouter(productCatalogMock{}).ServeHTTP(rec, httptest.NewRequest("GET", "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProductsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Products)
}

func TestListProducts_RepositoryError(t *testing.T) {
	rec := httptest.NewRecorder()
	productsTestRouter(productCatalogMock{err: assert.AnError}).ServeHTTP(rec, httptest.NewRequest("GET", "/products", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetProductBySlug_Success(t *testing.T) {
	mock := productCatalogMock{products: []*catalog.Product{
		{ID: "prd-soap", Name: "Castile Soap Bar", Slug: "castile-soap-bar", Price: 12.50},
	}}

	rec := httptest.NewRecorder()
	productsTestRouter(mock).ServeHTTP(rec, httptest.NewRequest("GET", "/products/castile-soap-bar", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp catalog.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "prd-soap", resp.ID)
}

func TestGetProductBySlug_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	productsTestRouter(productCatalogMock{}).ServeHTTP(rec, httptest.NewRequest("GET", "/products/no-such-product", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_found", resp.Code)
}
