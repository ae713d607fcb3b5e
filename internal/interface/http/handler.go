package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	apperrors "github.com/ndelacroix/depanneur/pkg/errors"
)

// Handler wires the HTTP transport to the diagnostic service.
type Handler struct {
	diagnosticSvc diagnostic.Service
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(diagnosticSvc diagnostic.Service, logger *slog.Logger) *Handler {
	return &Handler{
		diagnosticSvc: diagnosticSvc,
		logger:        logger.With("component", "http.handler"),
	}
}

type createToolRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ManualLink  string `json:"manual_link"`
}

type createProblemRequest struct {
	ToolID      int64  `json:"tool_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createSymptomRequest struct {
	ProblemID int64  `json:"problem_id"`
	Phrase    string `json:"phrase"`
}

type createSolutionRequest struct {
	ProblemID int64  `json:"problem_id"`
	StepText  string `json:"step_text"`
	Ordinal   int    `json:"ordinal"`
}

// Diagnose answers a free-text tool complaint. Match outcome is carried in the
// response body status; HTTP errors are reserved for malformed requests and
// infrastructure failures.
func (h *Handler) Diagnose(c *gin.Context) {
	var req diagnostic.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.diagnosticSvc.ProcessQuery(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "diagnostic_failed"
		if apperrors.IsCode(err, "invalid_input") {
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Trending returns the most frequent complaints.
func (h *Handler) Trending(c *gin.Context) {
	items, err := h.diagnosticSvc.Trending(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "diagnostic_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"trending": items})
}

// CreateTool registers a new tool in the catalogue.
func (h *Handler) CreateTool(c *gin.Context) {
	var req createToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	id, err := h.diagnosticSvc.AddTool(c.Request.Context(), req.Name, req.Description, req.ManualLink)
	if err != nil {
		abortWithError(c, catalogError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// CreateProblem registers a known failure mode of a tool.
func (h *Handler) CreateProblem(c *gin.Context) {
	var req createProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	id, err := h.diagnosticSvc.AddProblem(c.Request.Context(), req.ToolID, req.Title, req.Description)
	if err != nil {
		abortWithError(c, catalogError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// CreateSymptom registers a colloquial phrasing for a problem.
func (h *Handler) CreateSymptom(c *gin.Context) {
	var req createSymptomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	id, err := h.diagnosticSvc.AddSymptom(c.Request.Context(), req.ProblemID, req.Phrase)
	if err != nil {
		abortWithError(c, catalogError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// CreateSolution registers a repair step for a problem.
func (h *Handler) CreateSolution(c *gin.Context) {
	var req createSolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	id, err := h.diagnosticSvc.AddSolution(c.Request.Context(), req.ProblemID, req.StepText, req.Ordinal)
	if err != nil {
		abortWithError(c, catalogError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func catalogError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "catalog_failed"
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "catalog_conflict"):
		status = http.StatusConflict
		code = "catalog_conflict"
	case apperrors.IsCode(err, "catalog_not_found"):
		status = http.StatusUnprocessableEntity
		code = "catalog_not_found"
	case apperrors.IsCode(err, "no_vector"):
		status = http.StatusUnprocessableEntity
		code = "no_vector"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
