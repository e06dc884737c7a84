package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	"github.com/noah-isme/sikap-pkl-api/internal/service"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
	"github.com/noah-isme/sikap-pkl-api/pkg/response"
)

// FinalReportHandler exposes the final report scoring and finalization endpoints.
type FinalReportHandler struct {
	drafts       *service.DraftService
	scores       *service.ScoreService
	wizard       *service.WizardService
	finalize     *service.FinalizeService
	reports      *service.ReportService
	certificates *service.CertificateExportService
}

// NewFinalReportHandler constructs handler.
func NewFinalReportHandler(
	drafts *service.DraftService,
	scores *service.ScoreService,
	wizard *service.WizardService,
	finalize *service.FinalizeService,
	reports *service.ReportService,
	certificates *service.CertificateExportService,
) *FinalReportHandler {
	return &FinalReportHandler{
		drafts:       drafts,
		scores:       scores,
		wizard:       wizard,
		finalize:     finalize,
		reports:      reports,
		certificates: certificates,
	}
}

// Draft godoc
// @Summary Compose the pre-filled report draft for a placement
// @Tags FinalReports
// @Produce json
// @Param id path string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/final-report/draft [get]
func (h *FinalReportHandler) Draft(c *gin.Context) {
	view, err := h.drafts.ComposeDraft(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// UpsertScores godoc
// @Summary Replace the full score set for a placement's report
// @Tags FinalReports
// @Accept json
// @Produce json
// @Param id path string true "Placement ID"
// @Param payload body service.UpsertScoresRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/final-report/scores [put]
func (h *FinalReportHandler) UpsertScores(c *gin.Context) {
	var req service.UpsertScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.PlacementID = c.Param("id")
	result, err := h.scores.UpsertScores(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// WizardSave godoc
// @Summary Persist a wizard step and navigate
// @Tags FinalReports
// @Accept json
// @Produce json
// @Param id path string true "Placement ID"
// @Param payload body service.WizardSaveRequest true "Wizard payload"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/final-report/wizard [post]
func (h *FinalReportHandler) WizardSave(c *gin.Context) {
	var req service.WizardSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.PlacementID = c.Param("id")
	result, err := h.wizard.Save(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List final reports
// @Tags FinalReports
// @Produce json
// @Param cohort query string false "Filter by student cohort"
// @Param status query string false "Filter by placement status"
// @Param search query string false "Search by student name or NIS"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /final-reports [get]
func (h *FinalReportHandler) List(c *gin.Context) {
	filter := models.FinalReportFilter{
		Cohort: c.Query("cohort"),
		Status: models.PlacementStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	rows, pagination, err := h.reports.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Detail godoc
// @Summary Get a final report with grouped scores
// @Tags FinalReports
// @Produce json
// @Param id path string true "Final report ID"
// @Success 200 {object} response.Envelope
// @Router /final-reports/{id} [get]
func (h *FinalReportHandler) Detail(c *gin.Context) {
	detail, err := h.reports.Detail(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Finalize godoc
// @Summary Issue the certificate for a drafted report
// @Tags FinalReports
// @Accept json
// @Produce json
// @Param id path string true "Final report ID"
// @Param payload body service.FinalizeRequest false "Finalize overrides"
// @Success 200 {object} response.Envelope
// @Router /final-reports/{id}/finalize [post]
func (h *FinalReportHandler) Finalize(c *gin.Context) {
	var req service.FinalizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	req.ReportID = c.Param("id")
	result, err := h.finalize.Finalize(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Certificate godoc
// @Summary Download the issued certificate as PDF
// @Tags FinalReports
// @Produce application/pdf
// @Param id path string true "Final report ID"
// @Success 200 {file} binary
// @Router /final-reports/{id}/certificate.pdf [get]
func (h *FinalReportHandler) Certificate(c *gin.Context) {
	data, filename, err := h.certificates.RenderPDF(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
