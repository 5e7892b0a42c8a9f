package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type ReportHandler struct {
	reportService service.IReportService
}

func NewReportHandler(reportService service.IReportService) *ReportHandler {
	if reportService == nil {
		panic("reportService cannot be nil")
	}
	return &ReportHandler{reportService: reportService}
}

// RevenueReport 營收統計只算已送達的訂單，金額取下單當下的快照
func (h *ReportHandler) RevenueReport(w http.ResponseWriter, r *http.Request) {
	var req dto.RevenueReportDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	var start, end *time.Time
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			api.ErrorJSON(w, msgInvalidRequest)
			return
		}
		start = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			api.ErrorJSON(w, msgInvalidRequest)
			return
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		end = &t
	}

	summary, daily, err := h.reportService.RevenueReport(r.Context(), start, end)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{
		"summary": summary,
		"daily":   daily,
	})
}
