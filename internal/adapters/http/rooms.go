package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
)

// RoomsHandler serves the read-only roster projections. No side effects.
type RoomsHandler struct {
	registry *core.Registry
}

func NewRoomsHandler(registry *core.Registry) *RoomsHandler {
	return &RoomsHandler{registry: registry}
}

func (h *RoomsHandler) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.registry.List()})
}

func (h *RoomsHandler) getRoom(c *gin.Context) {
	id := domain.DocumentID(c.Param("id"))
	room, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "error",
			"data":    gin.H{},
			"message": "no rooms match to that id.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": core.RoomInfo{Name: room.ID(), Users: room.Members()}})
}
