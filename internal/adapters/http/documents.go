package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/app"
	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
	"github.com/dkeye/Inkroom/internal/store"
)

type DocumentsHandler struct {
	docs *app.DocumentService
}

func NewDocumentsHandler(docs *app.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{docs: docs}
}

type createDocumentRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Team        string          `json:"team" binding:"required"`
	Invites     []domain.Member `json:"invites"`
}

func (h *DocumentsHandler) create(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	creator := domain.User{ID: identity.UserID, Name: identity.Name, Email: identity.Email}
	doc, err := h.docs.Create(c.Request.Context(), creator, req.Name, req.Description, domain.TeamName(req.Team), req.Invites)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateRoom) {
			c.JSON(http.StatusConflict, gin.H{"error": "document already exists"})
			return
		}
		log.Error().Err(err).Str("module", "http.documents").Msg("create document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"document": doc}})
}

func (h *DocumentsHandler) list(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "http.documents").Msg("list documents")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"documents": docs}})
}

func (h *DocumentsHandler) listMine(c *gin.Context) {
	identity, _ := identityFrom(c)
	docs, err := h.docs.ListMine(c.Request.Context(), identity.UserID)
	if err != nil {
		log.Error().Err(err).Str("module", "http.documents").Msg("list my documents")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"documents": docs}})
}

func (h *DocumentsHandler) get(c *gin.Context) {
	id := domain.DocumentID(c.Param("uniqueId"))
	doc, err := h.docs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no document found"})
			return
		}
		log.Error().Err(err).Str("module", "http.documents").Msg("get document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"document": doc}})
}

type updateDocumentRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Invites     []domain.Member `json:"invites"`
}

func (h *DocumentsHandler) update(c *gin.Context) {
	id := domain.DocumentID(c.Param("uniqueId"))
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := h.docs.Update(c.Request.Context(), id, req.Name, req.Description, req.Invites); err != nil {
		log.Error().Err(err).Str("module", "http.documents").Msg("update document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{}})
}

func (h *DocumentsHandler) remove(c *gin.Context) {
	id := domain.DocumentID(c.Param("uniqueId"))
	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		log.Error().Err(err).Str("module", "http.documents").Msg("delete document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{}})
}

type inviteReplyRequest struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

func (h *DocumentsHandler) handleInviteReply(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req inviteReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	user := domain.User{ID: identity.UserID, Name: identity.Name, Email: identity.Email}
	err := h.docs.HandleInviteReply(c.Request.Context(), domain.DocumentID(req.ID), user, req.Status == "accept")
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"code":    "error",
			"message": "You cannot accept or reject twice.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{}})
}
