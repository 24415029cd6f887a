package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onlineexam/exam-service/internal/exam/service"
	"github.com/onlineexam/exam-service/pkg/logger"
	"github.com/onlineexam/exam-service/pkg/metrics"
	"github.com/onlineexam/exam-service/pkg/middleware"
)

// Error messages returned to clients.
const (
	msgFieldsRequired = "All fields are required"
	msgNotFound       = "Exam not found or unauthorized"
	msgServerError    = "Server error"
	msgBadBody        = "Invalid request body"
	msgUnauthorized   = "authentication required"
)

// RegisterExamRoutes mounts the exam endpoints under <rg>/exams. mw runs
// before every handler and must include the authentication middleware.
func RegisterExamRoutes(rg gin.IRouter, svc service.Service, mw ...gin.HandlerFunc) {
	h := &examHandler{svc: svc}
	g := rg.Group("/exams", mw...)
	g.GET("", h.list)
	g.GET("/", h.list)
	g.POST("", h.create)
	g.POST("/", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

type examHandler struct {
	svc service.Service
}

// owner returns the verified caller identity, aborting with 401 when absent.
func owner(c *gin.Context) (string, bool) {
	id := middleware.OwnerID(c)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return "", false
	}
	return id, true
}

// bindInput decodes the JSON body. An empty body decodes to an empty input so
// it fails field validation like any other incomplete payload.
func bindInput(c *gin.Context) (service.Input, bool) {
	var in service.Input
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		metrics.ExamOperations.WithLabelValues(opFromMethod(c), "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadBody})
		return in, false
	}
	return in, true
}

func (h *examHandler) list(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), ownerID)
	if err != nil {
		h.fail(c, "list", ownerID, err)
		return
	}
	metrics.ExamOperations.WithLabelValues("list", "ok").Inc()
	c.JSON(http.StatusOK, list)
}

func (h *examHandler) create(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	in, ok := bindInput(c)
	if !ok {
		return
	}
	e, err := h.svc.Create(c.Request.Context(), ownerID, in)
	if err != nil {
		h.fail(c, "create", ownerID, err)
		return
	}
	metrics.ExamOperations.WithLabelValues("create", "ok").Inc()
	c.JSON(http.StatusCreated, e)
}

func (h *examHandler) update(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	in, ok := bindInput(c)
	if !ok {
		return
	}
	e, err := h.svc.Update(c.Request.Context(), ownerID, c.Param("id"), in)
	if err != nil {
		h.fail(c, "update", ownerID, err)
		return
	}
	metrics.ExamOperations.WithLabelValues("update", "ok").Inc()
	c.JSON(http.StatusOK, e)
}

func (h *examHandler) delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		h.fail(c, "delete", ownerID, err)
		return
	}
	metrics.ExamOperations.WithLabelValues("delete", "ok").Inc()
	c.Status(http.StatusNoContent)
}

// fail maps service errors to responses. Store failures are logged and
// reported without detail.
func (h *examHandler) fail(c *gin.Context, op, ownerID string, err error) {
	switch {
	case errors.Is(err, service.ErrFieldsRequired):
		metrics.ExamOperations.WithLabelValues(op, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": msgFieldsRequired})
	case errors.Is(err, service.ErrInvalidDuration), errors.Is(err, service.ErrInvalidDate):
		metrics.ExamOperations.WithLabelValues(op, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFoundOrUnauthorized):
		metrics.ExamOperations.WithLabelValues(op, "not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	case errors.Is(err, service.ErrMissingOwner):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
	default:
		metrics.ExamOperations.WithLabelValues(op, "error").Inc()
		logger.Errorf("exam %s failed (owner=%s request_id=%s): %v", op, ownerID, c.GetString(middleware.RequestIDKey), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerError})
	}
}

func opFromMethod(c *gin.Context) string {
	if c.Request.Method == http.MethodPut {
		return "update"
	}
	return "create"
}
