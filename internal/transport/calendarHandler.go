package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

// GetMonth returns a month grid without creating a session.
// Missing year or month default to the current one.
func (h *CalendarHandler) GetMonth(c *gin.Context) {
	now := time.Now()

	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid year", entity.ErrInvalidInput))
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid month", entity.ErrInvalidInput))
		return
	}

	grid, err := h.calendarService.Month(c.Request.Context(), middleware.Token(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, grid)
}

func (h *SessionHandler) GetCalendar(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Calendar.Snapshot())
}

func (h *SessionHandler) NextMonth(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}
	snap, err := sess.Calendar.Next(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) PrevMonth(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}
	snap, err := sess.Calendar.Prev(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) GotoMonth(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	var req entity.GotoMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := sess.Calendar.Goto(c.Request.Context(), req.Year, req.Month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) RetryCalendar(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Calendar.Retry(c.Request.Context()))
}
