package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/CorrelAid/debtor_submission_uploader/form"
	"github.com/CorrelAid/debtor_submission_uploader/middleware"
	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/CorrelAid/debtor_submission_uploader/operations"
	"github.com/CorrelAid/debtor_submission_uploader/validators"
	"github.com/CorrelAid/debtor_submission_uploader/widget"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const turnstileField = "cf-turnstile-response"

type FormHandler struct {
	service     *operations.FormService
	turnstile   *validators.Turnstile
	maxFileSize int64
	logger      *logrus.Logger
}

func NewFormHandler(service *operations.FormService, turnstile *validators.Turnstile, maxFileSize int64, logger *logrus.Logger) *FormHandler {
	return &FormHandler{
		service:     service,
		turnstile:   turnstile,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

type fieldUpdate struct {
	Value *string `json:"value"`
}

// callbackPayload is what the browser widget handed to its callback: either
// an error object or a result with an event tag.
type callbackPayload struct {
	Error *models.WidgetError `json:"error"`
	Event string              `json:"event"`
	Info  models.UploadInfo   `json:"info"`
}

type widgetResponse struct {
	AttemptID string          `json:"attemptId"`
	Config    widget.Config   `json:"config"`
	Session   *models.Session `json:"session"`
}

func (h *FormHandler) Create(c *gin.Context) {
	session, err := h.service.CreateSession()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *FormHandler) Get(c *gin.Context) {
	session, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *FormHandler) UpdateField(c *gin.Context) {
	var body fieldUpdate
	if err := c.ShouldBindJSON(&body); err != nil || body.Value == nil {
		badRequest(c, "A JSON body with a value is required")
		return
	}

	session, err := h.service.UpdateField(c.Param("id"), c.Param("name"), *body.Value)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Upload starts a server-side upload of the multipart "file" field.
func (h *FormHandler) Upload(c *gin.Context) {
	session, ok, err := h.service.CheckFields(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, session)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Error getting file: "+err.Error())
		return
	}
	if err := h.turnstile.ValidateToken(c.Request.Context(), turnstileToken(c), c.ClientIP()); err != nil {
		h.fail(c, err)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer src.Close()

	// Reading one byte past the limit is enough for the widget to reject it.
	reader := io.Reader(src)
	if h.maxFileSize > 0 {
		reader = io.LimitReader(src, h.maxFileSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		h.fail(c, err)
		return
	}

	var delegated bool
	session, delegated, err = h.service.BeginUpload(c.Request.Context(), c.Param("id"), widget.File{
		Name:    fileHeader.Filename,
		Content: content,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if !delegated {
		c.JSON(http.StatusUnprocessableEntity, session)
		return
	}
	c.JSON(http.StatusAccepted, session)
}

// Widget prepares an upload run by the browser widget.
func (h *FormHandler) Widget(c *gin.Context) {
	if err := h.turnstile.ValidateToken(c.Request.Context(), turnstileToken(c), c.ClientIP()); err != nil {
		h.fail(c, err)
		return
	}

	session, cfg, delegated, err := h.service.PrepareClientUpload(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !delegated {
		c.JSON(http.StatusUnprocessableEntity, session)
		return
	}
	c.JSON(http.StatusOK, widgetResponse{
		AttemptID: session.AttemptID,
		Config:    cfg,
		Session:   session,
	})
}

// Result applies the browser widget's callback payload.
func (h *FormHandler) Result(c *gin.Context) {
	var body callbackPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid widget callback payload")
		return
	}

	var (
		result    *models.UploadResult
		uploadErr error
	)
	if body.Error != nil {
		uploadErr = body.Error
	} else {
		result = &models.UploadResult{Event: body.Event, Info: body.Info}
	}

	session, err := h.service.ReportResult(c.Param("id"), c.Param("attempt"), result, uploadErr)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func turnstileToken(c *gin.Context) string {
	if token := c.GetHeader("X-Turnstile-Token"); token != "" {
		return token
	}
	return c.PostForm(turnstileField)
}

func badRequest(c *gin.Context, body string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, middleware.Message{
		Status: "Request Failed",
		Body:   body,
	})
}

func (h *FormHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	body := "An unexpected error occurred"
	switch {
	case errors.Is(err, operations.ErrSessionNotFound):
		status, body = http.StatusNotFound, "Form session not found"
	case errors.Is(err, form.ErrUnknownField):
		status, body = http.StatusBadRequest, "Unknown form field"
	case errors.Is(err, validators.ErrTokenRequired), errors.Is(err, validators.ErrTokenInvalid):
		status, body = http.StatusForbidden, "Bot check failed"
	case errors.Is(err, validators.ErrVerification):
		status, body = http.StatusBadGateway, "Bot check is unavailable, try again later."
	default:
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"path":       c.Request.URL.Path,
		}).WithError(err).Error("Form request failed")
	}

	c.AbortWithStatusJSON(status, middleware.Message{
		Status: "Request Failed",
		Body:   body,
	})
}
