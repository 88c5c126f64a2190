package main

import (
	"fmt"
	"log"
	"net/http"

	"gamenight/backend/internal/auth"
	"gamenight/backend/internal/cache"
	"gamenight/backend/internal/config"
	"gamenight/backend/internal/database"
	"gamenight/backend/internal/handler"
	"gamenight/backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "gamenight/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Game Night Planner API
// @version         1.0
// @description     This is the API for the Game Night Planner service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	database.Connect(config.AppConfig.DatabaseURL)
	cache.InitRedis()
	if err := storage.Init(); err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	router := gin.Default()
	router.Use(cors.Default())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// Profile routes (protected)
		profileRoutes := apiV1.Group("/profiles")
		profileRoutes.Use(auth.AuthMiddleware())
		{
			profileRoutes.GET("/me", handler.GetMyProfile)
			profileRoutes.PUT("/me", handler.UpdateMyProfile)
			profileRoutes.GET("/:userId", handler.GetUserProfileByID)
		}

		// Game session routes (protected, chat list readable without a token)
		sessionRoutes := apiV1.Group("/sessions")
		{
			sessionRoutes.GET("/:id/chat", auth.OptionalAuthMiddleware(), handler.ListMessagesForSession)

			protected := sessionRoutes.Group("")
			protected.Use(auth.AuthMiddleware())
			{
				protected.POST("", handler.CreateGameSession)
				protected.GET("/open", handler.ListOpenGameSessions)
				protected.GET("/:id", handler.GetGameSessionByID)
				protected.PUT("/:id", handler.UpdateGameSession)
				protected.POST("/:id/join", handler.JoinSession)
				protected.POST("/:id/leave", handler.LeaveSession)
				protected.POST("/:id/cancel", handler.CancelSession)
				protected.POST("/:id/complete", handler.CompleteSession)
				protected.POST("/:id/chat", handler.SendMessageToSessionChat)
				protected.GET("/:id/chat/stream", handler.StreamSessionChat)
			}
		}

		// Community post routes (protected)
		postRoutes := apiV1.Group("/posts")
		postRoutes.Use(auth.AuthMiddleware())
		{
			postRoutes.POST("", handler.CreatePost)
			postRoutes.GET("", handler.ListPosts)
			postRoutes.GET("/:id", handler.GetPostDetails)
			postRoutes.PUT("/:id", handler.UpdatePost)
			postRoutes.DELETE("/:id", handler.DeletePost)
			postRoutes.POST("/:id/like", handler.LikePost)
			postRoutes.POST("/:id/unlike", handler.UnlikePost)
		}

		// Connection graph routes (protected)
		connectionRoutes := apiV1.Group("/connections")
		connectionRoutes.Use(auth.AuthMiddleware())
		{
			connectionRoutes.POST("/request/:userId", handler.RequestConnection)
			connectionRoutes.POST("/:id/accept", handler.AcceptConnectionRequest)
			connectionRoutes.POST("/:id/decline", handler.DeclineOrCancelConnectionRequest)
			connectionRoutes.POST("/remove/:userId", handler.RemoveConnection)
			connectionRoutes.POST("/block/:userId", handler.BlockUser)
			connectionRoutes.POST("/unblock/:userId", handler.UnblockUser)
			connectionRoutes.GET("/followers", handler.GetFollowers)
			connectionRoutes.GET("/following", handler.GetFollowing)
			connectionRoutes.GET("/requests", handler.GetPendingIncomingRequests)
			connectionRoutes.GET("/status/:userId", handler.GetConnectionStatusWithUser)
		}

		// Rating routes (protected)
		ratingRoutes := apiV1.Group("/ratings")
		ratingRoutes.Use(auth.AuthMiddleware())
		{
			ratingRoutes.POST("", handler.SubmitRating)
			ratingRoutes.GET("/user/:userId", handler.GetRatingsForUser)
			ratingRoutes.GET("/user/:userId/average", handler.GetAverageRatingForUser)
			ratingRoutes.GET("/session/:sessionId/user/:userId", handler.GetRatingByRaterForSession)
		}

		// File routes (upload gated by handle, serving is public)
		fileRoutes := apiV1.Group("/files")
		{
			fileRoutes.POST("/upload-url", auth.AuthMiddleware(), handler.RequestUploadHandle)
			fileRoutes.POST("/upload", handler.UploadFile)
			fileRoutes.GET("/:id", handler.ServeFile)
		}
	}

	fmt.Printf("Server is running on %s\n", config.AppConfig.ServerAddr)
	fmt.Println("Swagger UI is available at /swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ServerAddr))
}
