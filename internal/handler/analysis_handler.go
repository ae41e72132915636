package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mpawatch-backend-go/internal/analysis"
	"github.com/jengzang/mpawatch-backend-go/internal/gfw"
	"github.com/jengzang/mpawatch-backend-go/internal/models"
	"github.com/jengzang/mpawatch-backend-go/internal/service"
	"github.com/jengzang/mpawatch-backend-go/internal/validation"
	"github.com/jengzang/mpawatch-backend-go/pkg/response"
)

// OutcomeHeader carries the run outcome on GeoJSON responses
const OutcomeHeader = "X-Analysis-Outcome"

// AnalyzeRequest is the body of POST /api/v1/analyses. A single
// observation and a batch may be combined; the single one goes first.
type AnalyzeRequest struct {
	Observation  *models.VesselObservation `json:"observation"`
	Observations models.ObservationBatch   `json:"observations"`
}

// Batch flattens the request into one batch
func (r AnalyzeRequest) Batch() models.ObservationBatch {
	batch := make(models.ObservationBatch, 0, len(r.Observations)+1)
	if r.Observation != nil {
		batch = append(batch, *r.Observation)
	}
	return append(batch, r.Observations...)
}

// AnalysisHandler handles HTTP requests for analysis runs
type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// Analyze handles POST /api/v1/analyses
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), req.Batch())
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, result)
}

// FetchAndAnalyze handles POST /api/v1/analyses/fetch
func (h *AnalysisHandler) FetchAndAnalyze(c *gin.Context) {
	var req models.FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.analysisService.FetchAndAnalyze(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, result)
}

func (h *AnalysisHandler) render(c *gin.Context, result *analysis.Result) {
	if c.Query("format") == "geojson" {
		c.Header(OutcomeHeader, string(result.Outcome))
		c.JSON(http.StatusOK, models.RecordsFeatureCollection(result.Records))
		return
	}
	response.Success(c, result)
}

func (h *AnalysisHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var recErr *validation.RecordError
	var upErr *gfw.UpstreamError
	switch {
	case errors.As(err, &recErr):
		response.ErrorWithData(c, http.StatusBadRequest, "Invalid observation", recErr)
	case errors.Is(err, validation.ErrBatchTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &upErr):
		response.BadGateway(c, err.Error())
	case errors.Is(err, gfw.ErrUnavailable),
		errors.Is(err, gfw.ErrNoToken),
		errors.Is(err, service.ErrFetchDisabled):
		response.ServiceUnavailable(c, err.Error())
	default:
		response.InternalError(c, "Analysis failed")
	}
}
