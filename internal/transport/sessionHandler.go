package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/internal/transport/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *SessionHandler) Mount(c *gin.Context) {
	sess, err := h.sessionService.Mount(c.Request.Context(), middleware.Token(c))
	if err != nil {
		respondError(c, err)
		return
	}

	snap, err := h.sessionService.Snapshot(sess.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *SessionHandler) Unmount(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := h.sessionService.Unmount(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	snap, err := h.sessionService.Snapshot(sess.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) GetMutations(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		respondError(c, fmt.Errorf("%w: limit must be between 1 and 500", entity.ErrInvalidInput))
		return
	}

	records, err := h.sessionService.Journal(c.Request.Context(), sess.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mutations": records, "total": len(records)})
}

func (h *SessionHandler) GetMutation(c *gin.Context) {
	sess, ok := session(c, h.sessionService)
	if !ok {
		return
	}

	ref := c.Param("ref")
	if _, err := uuid.Parse(ref); err != nil {
		respondError(c, fmt.Errorf("%w: invalid mutation ref", entity.ErrInvalidInput))
		return
	}

	rec, err := h.sessionService.Mutation(c.Request.Context(), sess.ID, ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
