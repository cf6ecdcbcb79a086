package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/api/http/converter"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/service"
)

// DocumentController carries the out-of-band document operations: the
// periodic content save invoked by the editor and collaborator
// management. Live collaboration runs over the websocket relay.
type DocumentController struct {
	documents service.DocumentInteractor
}

func NewDocumentController(documents service.DocumentInteractor) *DocumentController {
	return &DocumentController{documents: documents}
}

func (c *DocumentController) ListDocuments(ctx *gin.Context) {
	user := currentUser(ctx)

	docs, err := c.documents.VisibleDocuments(ctx.Request.Context(), user.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"documents": converter.DocumentsToApi(docs)})
}

func (c *DocumentController) ListCollaborators(ctx *gin.Context) {
	documentID, err := uuid.Parse(ctx.Param("documentID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	user := currentUser(ctx)
	rows, err := c.documents.CollaboratorList(ctx.Request.Context(), user.ID, documentID)
	if err != nil {
		writeDocumentError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"collaborators": converter.CollaboratorsToApi(rows)})
}

func (c *DocumentController) SaveContent(ctx *gin.Context) {
	documentID, err := uuid.Parse(ctx.Param("documentID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	type request struct {
		Content []byte `json:"content" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user := currentUser(ctx)
	if err := c.documents.SaveContent(ctx.Request.Context(), user.ID, documentID, req.Content); err != nil {
		writeDocumentError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (c *DocumentController) AddCollaborator(ctx *gin.Context) {
	documentID, err := uuid.Parse(ctx.Param("documentID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	type request struct {
		UserID     string `json:"user_id" binding:"required"`
		Permission string `json:"permission" binding:"omitempty,oneof=read write"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	permission := domain.DocumentPermission(req.Permission)
	if permission == "" {
		permission = domain.DocumentPermissionWrite
	}

	actor := currentUser(ctx)
	if err := c.documents.AddCollaborator(ctx.Request.Context(), actor.ID, documentID, userID, permission); err != nil {
		writeDocumentError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "added"})
}

func (c *DocumentController) RemoveCollaborator(ctx *gin.Context) {
	documentID, err := uuid.Parse(ctx.Param("documentID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}
	userID, err := uuid.Parse(ctx.Param("userID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	actor := currentUser(ctx)
	if err := c.documents.RemoveCollaborator(ctx.Request.Context(), actor.ID, documentID, userID); err != nil {
		writeDocumentError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func writeDocumentError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrNotFound):
		// Existence is not leaked beyond what membership already implies.
		ctx.JSON(http.StatusForbidden, gin.H{"error": "not found or not allowed"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
