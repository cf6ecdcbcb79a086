package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/homechat/internal/auth"
)

func SetupRouter(
	guard *auth.Guard,
	authController *AuthController,
	roomController *RoomController,
	documentController *DocumentController,
	wsController *WSController,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(guard))

	rooms := protected.Group("/rooms")
	rooms.POST("", roomController.CreateRoom)
	rooms.GET("", roomController.ListRooms)
	rooms.GET("/:roomID/messages", roomController.ListMessages)

	documents := protected.Group("/documents")
	documents.GET("", documentController.ListDocuments)
	documents.GET("/:documentID/collaborators", documentController.ListCollaborators)
	documents.PUT("/:documentID/content", documentController.SaveContent)
	documents.POST("/:documentID/collaborators", documentController.AddCollaborator)
	documents.DELETE("/:documentID/collaborators/:userID", documentController.RemoveCollaborator)

	// The websocket endpoint authenticates from the query token itself;
	// middleware would reject the upgrade request.
	api.GET("/ws", wsController.Connect)

	return router
}
