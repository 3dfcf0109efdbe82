package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForecastService struct {
	bundle     *domain.ForecastBundle
	runErr     error
	categories []domain.Category
	listErr    error
	gotIDs     []string
	panicOnRun bool
}

func (f *fakeForecastService) Run(_ context.Context, ids []string) (*domain.ForecastBundle, error) {
	if f.panicOnRun {
		panic("unexpected")
	}
	f.gotIDs = ids
	return f.bundle, f.runErr
}

func (f *fakeForecastService) ListCategories(context.Context) ([]domain.Category, error) {
	return f.categories, f.listErr
}

func (f *fakeForecastService) RecentRuns(context.Context, int) ([]*domain.RunRecord, error) {
	return nil, nil
}

func testBundle() *domain.ForecastBundle {
	b := domain.NewEmptyBundle(time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC))
	b.Empty = false
	for i, m := range []time.Month{time.January, time.February, time.March} {
		start := time.Date(2024, m, 1, 0, 0, 0, 0, time.UTC)
		b.Window.Months[i] = domain.MonthRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
	}
	b.Categories["C1"] = "Coffee"
	b.Items["V1"] = domain.ItemVariation{ID: "V1", ItemName: "Latte", VariationName: "Large", CategoryID: "C1"}
	b.Items["V2"] = domain.ItemVariation{ID: "V2", ItemName: "Mocha", VariationName: "Small", CategoryID: "C1"}
	b.Results["V1"] = domain.ForecastResult{VariationID: "V1", ReorderQty: 4, OnHand: 5, TotalSold: 14}
	b.Results["V2"] = domain.ForecastResult{VariationID: "V2", OnHand: 10}
	b.Stages = []domain.StageReport{{Stage: domain.StageItems, Status: domain.FetchSuccess}}
	return b
}

func newTestRouter(svc *fakeForecastService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(&Services{ForecastService: svc}, nil)
}

func post(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeForecastService{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetCategories(t *testing.T) {
	router := newTestRouter(&fakeForecastService{categories: []domain.Category{{ID: "C1", Name: "Coffee"}}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":[{"id":"C1","name":"Coffee"}]}`, rec.Body.String())
}

func TestGetCategoriesUnavailable(t *testing.T) {
	router := newTestRouter(&fakeForecastService{listErr: service.ErrCategoriesUnavailable})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRunForecast(t *testing.T) {
	svc := &fakeForecastService{bundle: testBundle()}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast", map[string]any{"category_ids": []string{"C1, C2"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"C1", "C2"}, svc.gotIDs)

	var resp struct {
		Months [3]string        `json:"months"`
		Rows   []map[string]any `json:"rows"`
		Stages []map[string]any `json:"stages"`
		Empty  bool             `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, [3]string{"January 2024", "February 2024", "March 2024"}, resp.Months)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Latte (Large)", resp.Rows[0]["item_name"])
	assert.False(t, resp.Empty)
	assert.Equal(t, "success", resp.Stages[0]["status"])
}

func TestRunForecastShowAll(t *testing.T) {
	svc := &fakeForecastService{bundle: testBundle()}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast", map[string]any{"category_ids": []string{"C1"}, "show_all": true})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Rows, 2)
}

func TestRunForecastRequiresCategories(t *testing.T) {
	svc := &fakeForecastService{bundle: testBundle()}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast", map[string]any{"category_ids": []string{" "}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.gotIDs)
}

func TestRunForecastFailureNotice(t *testing.T) {
	svc := &fakeForecastService{runErr: service.ErrForecastFailed}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast", map[string]any{"category_ids": []string{"C1"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to fetch and display forecast data"}`, rec.Body.String())
}

func TestRunForecastHidesInternalErrors(t *testing.T) {
	svc := &fakeForecastService{runErr: errors.New("dial tcp: connection refused")}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast", map[string]any{"category_ids": []string{"C1"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestRunForecastRecoversPanic(t *testing.T) {
	svc := &fakeForecastService{panicOnRun: true}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast", map[string]any{"category_ids": []string{"C1"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), service.ErrForecastFailed.Error())
}

func TestExportForecastCSV(t *testing.T) {
	svc := &fakeForecastService{bundle: testBundle()}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast/export?format=csv", map[string]any{"category_ids": []string{"C1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "forecast-20240410.csv")
	assert.Contains(t, rec.Body.String(), "Coffee,Latte (Large),4,5")
}

func TestExportForecastUnknownFormat(t *testing.T) {
	svc := &fakeForecastService{bundle: testBundle()}
	rec := post(t, newTestRouter(svc), "/api/v1/forecast/export?format=pdf", map[string]any{"category_ids": []string{"C1"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.gotIDs)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, allowAll := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)
	assert.False(t, allowAll)

	_, allowAll = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, allowAll)
}
