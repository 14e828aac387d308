package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"goqvalue/app"
	"goqvalue/domain/core"
	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/errors"
	"goqvalue/internal/qvalue"
)

const defaultListLimit = 50

// QValueHandler serves q-value computations and stored runs over HTTP
type QValueHandler struct {
	service *app.QValueService
	logger  *internal.Logger
}

// NewQValueHandler creates a new q-value handler
func NewQValueHandler(service *app.QValueService, logger *internal.Logger) *QValueHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &QValueHandler{service: service, logger: logger}
}

// AnalyzeRequest is the JSON body of POST /api/v1/qvalue
type AnalyzeRequest struct {
	Name      string              `json:"name"`
	PValues   []float64           `json:"pvalues" binding:"required"`
	FDRLevel  *float64            `json:"fdr_level"`
	PFDR      bool                `json:"pfdr"`
	Pi0       *float64            `json:"pi0"`
	LFDR      *bool               `json:"lfdr"` // Defaults to true
	Estimator fdr.EstimatorConfig `json:"estimator"`
}

func (r AnalyzeRequest) toService() app.AnalyzeRequest {
	return app.AnalyzeRequest{
		Name:    r.Name,
		PValues: r.PValues,
		Options: qvalue.Options{
			FDRLevel:  r.FDRLevel,
			PFDR:      r.PFDR,
			Pi0:       r.Pi0,
			SkipLFDR:  r.LFDR != nil && !*r.LFDR,
			Estimator: r.Estimator,
		},
	}
}

// BatchRequest is the JSON body of POST /api/v1/qvalue/batch
type BatchRequest struct {
	Requests []AnalyzeRequest `json:"requests" binding:"required"`
}

// BatchItem is one entry of the batch response; exactly one field is set
type BatchItem struct {
	Run   *fdr.Run   `json:"run,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RegisterRoutes mounts the handler under /api/v1
func (h *QValueHandler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/qvalue", h.Analyze)
		v1.POST("/qvalue/batch", h.AnalyzeBatch)
		v1.GET("/runs", h.ListRuns)
		v1.GET("/runs/:id", h.GetRun)
		v1.GET("/runs/:id/summary", h.GetSummary)
	}
}

// Analyze computes q-values for one p-value vector and stores the run
func (h *QValueHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: "Invalid request data: " + err.Error(), Code: errors.CodeInvalidInput})
		return
	}

	run, err := h.service.Analyze(c.Request.Context(), req.toService())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, run)
}

// AnalyzeBatch computes several vectors concurrently
func (h *QValueHandler) AnalyzeBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: "Invalid request data: " + err.Error(), Code: errors.CodeInvalidInput})
		return
	}

	reqs := make([]app.AnalyzeRequest, len(req.Requests))
	for i, r := range req.Requests {
		reqs[i] = r.toService()
	}

	items, err := h.service.AnalyzeBatch(c.Request.Context(), reqs)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]BatchItem, len(items))
	for i, item := range items {
		if item.Err != nil {
			_, body := errorResponse(item.Err)
			out[i] = BatchItem{Error: &body}
			continue
		}
		out[i] = BatchItem{Run: item.Run}
	}

	c.JSON(http.StatusOK, gin.H{"items": out})
}

// GetRun returns one stored run
func (h *QValueHandler) GetRun(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetSummary returns the cutoff table of a stored run; ?format=text renders it
func (h *QValueHandler) GetSummary(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	sum, err := h.service.Summarize(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
		if err := sum.Render(c.Writer); err != nil {
			h.logger.Error("[api] render summary %s: %v", id, err)
		}
		return
	}

	c.JSON(http.StatusOK, sum)
}

// ListRuns lists stored runs; ?limit and ?offset page through them
func (h *QValueHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: "limit must be an integer", Code: errors.CodeInvalidInput})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: "offset must be an integer", Code: errors.CodeInvalidInput})
		return
	}

	runs, err := h.service.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
}

func (h *QValueHandler) parseID(c *gin.Context) (core.RunID, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: err.Error(), Code: errors.CodeInvalidInput})
		return "", false
	}
	return id, true
}

func (h *QValueHandler) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

// errorResponse maps error codes to HTTP statuses
func errorResponse(err error) (int, ErrorBody) {
	if core.IsNotFoundError(err) {
		return http.StatusNotFound, ErrorBody{Error: err.Error(), Code: errors.CodeNotFound}
	}

	code := errors.GetCode(err)
	switch code {
	case errors.CodeRangeError, errors.CodeInvalidInput:
		return http.StatusBadRequest, ErrorBody{Error: err.Error(), Code: code}
	case errors.CodeEstimationError:
		return http.StatusUnprocessableEntity, ErrorBody{Error: err.Error(), Code: code}
	case errors.CodeNotFound:
		return http.StatusNotFound, ErrorBody{Error: err.Error(), Code: code}
	}
	return http.StatusInternalServerError, ErrorBody{Error: "internal error", Code: errors.CodeInternalError}
}
