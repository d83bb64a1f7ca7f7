package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ReportHandler struct {
	service        *service.ReportService
	maxUploadBytes int64
}

func NewReportHandler(service *service.ReportService, maxUploadBytes int64) *ReportHandler {
	return &ReportHandler{service: service, maxUploadBytes: maxUploadBytes}
}

type queryPayload struct {
	ASIN string `json:"asin"`
	Date string `json:"date"`
}

type salesDetailResponse struct {
	ID      string               `json:"id"`
	Cached  bool                 `json:"cached"`
	Query   queryPayload         `json:"query"`
	Options domain.Options       `json:"options"`
	Rows    []domain.SalesDetail `json:"rows"`
}

type inventoryStatusResponse struct {
	ID      string                   `json:"id"`
	Cached  bool                     `json:"cached"`
	Query   queryPayload             `json:"query"`
	Options domain.Options           `json:"options"`
	Rows    []domain.InventoryStatus `json:"rows"`
}

// Upload builds a report and returns its id and join diagnostics.
func (h *ReportHandler) Upload(c *gin.Context) {
	view, ok := h.build(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     view.ID,
		"cached": view.Cached,
		"joins":  view.Report.Joins,
		"counts": gin.H{
			"sales_detail":     len(view.Report.Velocity),
			"inventory_status": len(view.Report.Statuses),
			"report_rows":      len(view.Report.Rows),
		},
	})
}

// UploadSalesDetail builds a report from the upload and returns the filtered sales detail view.
func (h *ReportHandler) UploadSalesDetail(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	view, ok := h.build(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, salesDetail(view, q))
}

// UploadInventoryStatus builds a report from the upload and returns the filtered inventory view.
func (h *ReportHandler) UploadInventoryStatus(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	view, ok := h.build(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inventoryStatus(view, q))
}

func (h *ReportHandler) GetSalesDetail(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	view, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, salesDetail(view, q))
}

func (h *ReportHandler) GetInventoryStatus(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	view, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inventoryStatus(view, q))
}

// GetOptions returns the select-box choices of one view (view=sales|inventory).
func (h *ReportHandler) GetOptions(c *gin.Context) {
	view, ok := h.load(c)
	if !ok {
		return
	}

	asin := c.DefaultQuery("asin", domain.OptionAll)
	switch strings.ToLower(c.DefaultQuery("view", "sales")) {
	case "sales", "sales_detail":
		c.JSON(http.StatusOK, view.SalesOptions(asin))
	case "inventory", "inventory_status":
		c.JSON(http.StatusOK, view.InventoryOptions(asin))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be sales or inventory"})
	}
}

// Delete removes one cached report.
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Purge removes every cached report.
func (h *ReportHandler) Purge(c *gin.Context) {
	n, err := h.service.Purge(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func salesDetail(view *service.ReportView, q domain.ReportQuery) salesDetailResponse {
	return salesDetailResponse{
		ID:      view.ID,
		Cached:  view.Cached,
		Query:   toPayload(q),
		Options: view.SalesOptions(q.ASIN),
		Rows:    view.SalesDetail(q),
	}
}

func inventoryStatus(view *service.ReportView, q domain.ReportQuery) inventoryStatusResponse {
	return inventoryStatusResponse{
		ID:      view.ID,
		Cached:  view.Cached,
		Query:   toPayload(q),
		Options: view.InventoryOptions(q.ASIN),
		Rows:    view.InventoryStatus(q),
	}
}

func toPayload(q domain.ReportQuery) queryPayload {
	p := queryPayload{ASIN: domain.OptionAll, Date: domain.OptionAll}
	if q.ASIN != "" {
		p.ASIN = q.ASIN
	}
	if !q.Date.IsZero() {
		p.Date = q.Date.Format("2006-01-02")
	}
	return p
}

func parseQuery(c *gin.Context) (domain.ReportQuery, bool) {
	q, err := domain.ParseReportQuery(c.Query("asin"), c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return domain.ReportQuery{}, false
	}
	return q, true
}

func (h *ReportHandler) build(c *gin.Context) (*service.ReportView, bool) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds the %d byte limit", tooLarge.Limit)})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "a workbook must be uploaded in the \"file\" field"})
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return nil, false
	}

	view, err := h.service.Build(c.Request.Context(), content, service.SheetNames{
		Sales:     c.PostForm("sales_sheet"),
		Profit:    c.PostForm("profit_sheet"),
		Inventory: c.PostForm("inventory_sheet"),
	})
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return view, true
}

func (h *ReportHandler) load(c *gin.Context) (*service.ReportView, bool) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return view, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidWorkbook):
		status = http.StatusBadRequest
	case domain.IsSchemaError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrReportNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("report request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
