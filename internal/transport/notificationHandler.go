package transport

import (
	"net/http"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *NotificationHandler) GetIndicator(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Indicator.Snapshot())
}

func (h *NotificationHandler) Poll(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}
	if err := sess.Indicator.Poll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Indicator.Snapshot())
}

func (h *NotificationHandler) Open(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	var req entity.OpenIndicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := sess.Indicator.Open(c.Request.Context(), req.Region)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *NotificationHandler) Close(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}
	sess.Indicator.Close()
	c.JSON(http.StatusOK, sess.Indicator.Snapshot())
}

// Pointer reports a pointer interaction anywhere on the page.
func (h *NotificationHandler) Pointer(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	var p entity.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delivered := sess.Pointer.Dispatch(p)
	c.JSON(http.StatusOK, gin.H{
		"delivered":     delivered,
		"notifications": sess.Indicator.Snapshot(),
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	if err := sess.Indicator.MarkRead(c.Request.Context(), c.Param("nid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Indicator.Snapshot())
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	if err := sess.Indicator.MarkAllRead(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Indicator.Snapshot())
}

func (h *NotificationHandler) Activate(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	result, err := sess.Indicator.Activate(c.Request.Context(), c.Param("nid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
