package handler

import (
	"net/http"
	"strings"

	"go-presensi/internal/model"
	"go-presensi/internal/service"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Daily serves GET /reports/daily?email=&nama=&tanggalMulai=&tanggalSelesai=.
// "name" is accepted as an alias for "nama".
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	name := query.Get("nama")
	if strings.TrimSpace(name) == "" {
		name = query.Get("name")
	}

	report, err := h.service.DailyReport(r.Context(), model.ReportQuery{
		Email:          query.Get("email"),
		Name:           name,
		TanggalMulai:   query.Get("tanggalMulai"),
		TanggalSelesai: query.Get("tanggalSelesai"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", report)
}
