package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/api/http/converter"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/service"
)

type RoomController struct {
	rooms service.RoomInteractor
}

func NewRoomController(rooms service.RoomInteractor) *RoomController {
	return &RoomController{rooms: rooms}
}

func (c *RoomController) CreateRoom(ctx *gin.Context) {
	type request struct {
		Name    string   `json:"name" binding:"required"`
		Type    string   `json:"type" binding:"required,oneof=group direct"`
		Members []string `json:"members"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	memberIDs := make([]uuid.UUID, 0, len(req.Members))
	for _, raw := range req.Members {
		id, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
			return
		}
		memberIDs = append(memberIDs, id)
	}

	user := currentUser(ctx)
	room, err := c.rooms.CreateRoom(ctx.Request.Context(), user.ID, req.Name, domain.RoomType(req.Type), memberIDs)
	if err != nil {
		if errors.Is(err, service.ErrDirectRoomMembers) || errors.Is(err, service.ErrRoomTypeInvalid) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"room": room})
}

func (c *RoomController) ListRooms(ctx *gin.Context) {
	user := currentUser(ctx)

	rooms, err := c.rooms.ListRooms(ctx.Request.Context(), user.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (c *RoomController) ListMessages(ctx *gin.Context) {
	roomID, err := uuid.Parse(ctx.Param("roomID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var beforeSeq int64
	if raw := ctx.Query("before_seq"); raw != "" {
		beforeSeq, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid before_seq"})
			return
		}
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	user := currentUser(ctx)
	messages, err := c.rooms.ListMessages(ctx.Request.Context(), user.ID, roomID, beforeSeq, limit)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) || errors.Is(err, auth.ErrNotFound) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "not found or not allowed"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"messages": converter.MessagesToApi(messages)})
}
