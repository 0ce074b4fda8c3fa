package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/ds124wfegd/innonet-bff/internal/client"
	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CalendarHandler struct {
	calendarService service.CalendarService
}

func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type NotificationHandler struct {
	sessionService service.SessionService
}

func NewNotificationHandler(sessionService service.SessionService) *NotificationHandler {
	return &NotificationHandler{sessionService: sessionService}
}

// session resolves the :id path parameter, writing the error response itself.
func session(c *gin.Context, sessions service.SessionService) (*service.Session, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return nil, false
	}

	sess, err := sessions.Get(id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

// respondError maps domain and backend errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var apiErr *client.APIError

	switch {
	case errors.Is(err, entity.ErrInvalidMonth),
		errors.Is(err, entity.ErrInvalidYear),
		errors.Is(err, entity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrNotificationNotFound),
		errors.Is(err, entity.ErrMutationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrIndicatorStopped):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		switch {
		case client.IsUnauthorized(err), client.IsNotFound(err):
			status = apiErr.StatusCode
		case apiErr.StatusCode == http.StatusUnprocessableEntity, apiErr.StatusCode == http.StatusBadRequest:
			status = http.StatusBadRequest
		}
		msg := apiErr.Detail
		if msg == "" {
			msg = apiErr.Error()
		}
		c.JSON(status, gin.H{"error": msg})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
