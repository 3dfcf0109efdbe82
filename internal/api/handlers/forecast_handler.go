package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/report"
	"github.com/andresuchdata/reorder-forecast/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// errNoSelection rejects API requests that select nothing.
var errNoSelection = errors.New("at least one category must be selected")

// ForecastService is the subset of service.ForecastService the handlers use.
type ForecastService interface {
	Run(ctx context.Context, categoryIDs []string) (*domain.ForecastBundle, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error)
}

type ForecastHandler struct {
	service ForecastService
}

func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type forecastRequest struct {
	CategoryIDs []string `json:"category_ids"`
	ShowAll     bool     `json:"show_all"`
	Format      string   `json:"format"`
}

type forecastResponse struct {
	GeneratedAt string               `json:"generated_at"`
	Months      [3]string            `json:"months"`
	Headers     []string             `json:"headers"`
	Rows        []report.ForecastRow `json:"rows"`
	Stages      []domain.StageReport `json:"stages"`
	Empty       bool                 `json:"empty"`
}

func (h *ForecastHandler) GetCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("handlers: list categories failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": service.ErrCategoriesUnavailable.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *ForecastHandler) RunForecast(c *gin.Context) {
	req, ok := bindForecastRequest(c)
	if !ok {
		return
	}

	bundle, ok := h.run(c, req.CategoryIDs)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, forecastResponse{
		GeneratedAt: bundle.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Months:      bundle.Window.Labels(),
		Headers:     report.Headers(bundle.Window),
		Rows:        report.BuildRows(bundle, req.ShowAll),
		Stages:      bundle.Stages,
		Empty:       bundle.Empty,
	})
}

// ExportForecast runs a forecast and returns the rendered report as a download.
func (h *ForecastHandler) ExportForecast(c *gin.Context) {
	req, ok := bindForecastRequest(c)
	if !ok {
		return
	}

	format, err := report.ParseFormat(firstNonEmpty(c.Query("format"), req.Format, string(report.FormatCSV)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, ok := h.run(c, req.CategoryIDs)
	if !ok {
		return
	}

	data, err := report.Render(format, bundle.Window, report.BuildRows(bundle, req.ShowAll))
	if err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("handlers: render report failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrForecastFailed.Error()})
		return
	}

	filename := "forecast-" + bundle.GeneratedAt.UTC().Format("20060102") + format.Extension()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}

func (h *ForecastHandler) GetRecentRuns(c *gin.Context) {
	limit := 20
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	runs, err := h.service.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("handlers: recent runs failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load forecast runs"})
		return
	}
	if runs == nil {
		runs = []*domain.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *ForecastHandler) run(c *gin.Context, categoryIDs []string) (*domain.ForecastBundle, bool) {
	bundle, err := h.service.Run(c.Request.Context(), categoryIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrForecastFailed.Error()})
		return nil, false
	}
	return bundle, true
}

func bindForecastRequest(c *gin.Context) (forecastRequest, bool) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}

	// Accept both ["A","B"] and ["A,B"].
	ids := make([]string, 0, len(req.CategoryIDs))
	for _, v := range req.CategoryIDs {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoSelection.Error()})
		return req, false
	}
	req.CategoryIDs = ids
	return req, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
