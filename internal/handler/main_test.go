package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"gamenight/backend/internal/auth"
	"gamenight/backend/internal/config"
	"gamenight/backend/internal/database"
	"gamenight/backend/internal/models"
	"gamenight/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest wires an in-memory database and test config for one test.
func setupTest(t *testing.T) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{
		JWTSecret:     "test-secret",
		UploadDir:     t.TempDir(),
		PublicBaseURL: "http://test.local",
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A fresh connection to :memory: is a fresh database, so keep one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db
}

// testRouter mirrors the route table in cmd/server.
func testRouter() *gin.Engine {
	router := gin.New()

	apiV1 := router.Group("/api/v1")

	authRoutes := apiV1.Group("/auth")
	authRoutes.POST("/register", RegisterUser)
	authRoutes.POST("/login", LoginUser)

	profileRoutes := apiV1.Group("/profiles")
	profileRoutes.Use(auth.AuthMiddleware())
	profileRoutes.GET("/me", GetMyProfile)
	profileRoutes.PUT("/me", UpdateMyProfile)
	profileRoutes.GET("/:userId", GetUserProfileByID)

	sessionRoutes := apiV1.Group("/sessions")
	sessionRoutes.GET("/:id/chat", auth.OptionalAuthMiddleware(), ListMessagesForSession)
	protected := sessionRoutes.Group("")
	protected.Use(auth.AuthMiddleware())
	protected.POST("", CreateGameSession)
	protected.GET("/open", ListOpenGameSessions)
	protected.GET("/:id", GetGameSessionByID)
	protected.PUT("/:id", UpdateGameSession)
	protected.POST("/:id/join", JoinSession)
	protected.POST("/:id/leave", LeaveSession)
	protected.POST("/:id/cancel", CancelSession)
	protected.POST("/:id/complete", CompleteSession)
	protected.POST("/:id/chat", SendMessageToSessionChat)
	protected.GET("/:id/chat/stream", StreamSessionChat)

	postRoutes := apiV1.Group("/posts")
	postRoutes.Use(auth.AuthMiddleware())
	postRoutes.POST("", CreatePost)
	postRoutes.GET("", ListPosts)
	postRoutes.GET("/:id", GetPostDetails)
	postRoutes.PUT("/:id", UpdatePost)
	postRoutes.DELETE("/:id", DeletePost)
	postRoutes.POST("/:id/like", LikePost)
	postRoutes.POST("/:id/unlike", UnlikePost)

	connectionRoutes := apiV1.Group("/connections")
	connectionRoutes.Use(auth.AuthMiddleware())
	connectionRoutes.POST("/request/:userId", RequestConnection)
	connectionRoutes.POST("/:id/accept", AcceptConnectionRequest)
	connectionRoutes.POST("/:id/decline", DeclineOrCancelConnectionRequest)
	connectionRoutes.POST("/remove/:userId", RemoveConnection)
	connectionRoutes.POST("/block/:userId", BlockUser)
	connectionRoutes.POST("/unblock/:userId", UnblockUser)
	connectionRoutes.GET("/followers", GetFollowers)
	connectionRoutes.GET("/following", GetFollowing)
	connectionRoutes.GET("/requests", GetPendingIncomingRequests)
	connectionRoutes.GET("/status/:userId", GetConnectionStatusWithUser)

	ratingRoutes := apiV1.Group("/ratings")
	ratingRoutes.Use(auth.AuthMiddleware())
	ratingRoutes.POST("", SubmitRating)
	ratingRoutes.GET("/user/:userId", GetRatingsForUser)
	ratingRoutes.GET("/user/:userId/average", GetAverageRatingForUser)
	ratingRoutes.GET("/session/:sessionId/user/:userId", GetRatingByRaterForSession)

	fileRoutes := apiV1.Group("/files")
	fileRoutes.POST("/upload-url", auth.AuthMiddleware(), RequestUploadHandle)
	fileRoutes.POST("/upload", UploadFile)
	fileRoutes.GET("/:id", ServeFile)

	return router
}

// createUser inserts a user and returns it with a valid bearer token.
func createUser(t *testing.T, nickname string) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Nickname:     nickname,
		Email:        nickname + "@example.com",
		PasswordHash: string(hash),
	}
	require.NoError(t, database.DB.Create(&user).Error)

	token, err := jwt.GenerateToken(user.ID)
	require.NoError(t, err)

	return user, token
}

func tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

// createProfile gives a user a complete profile so they can host sessions.
func createProfile(t *testing.T, user models.User) models.Profile {
	t.Helper()

	username := user.Nickname
	profile := models.Profile{
		UserID:       user.ID,
		Username:     &username,
		DisplayName:  user.Nickname,
		LocationCity: "Springfield",
	}
	require.NoError(t, database.DB.Create(&profile).Error)
	return profile
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// doRaw performs a request with a raw JSON string body, for payloads where
// field presence matters.
func doRaw(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func sessionPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/v1/sessions/%d%s", id, suffix)
}
