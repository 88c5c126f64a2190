package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gamenight/backend/internal/database"
	"gamenight/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// SubmitRatingInput defines the structure for rating another player.
type SubmitRatingInput struct {
	RatedUserID uint   `json:"rated_user_id" binding:"required"`
	SessionID   uint   `json:"session_id" binding:"required"`
	Score       int    `json:"score" binding:"required"`
	Comment     string `json:"comment"`
}

// RatingResponse is a rating enriched with rater display info and the session title.
type RatingResponse struct {
	ID               uint      `json:"id"`
	RaterID          uint      `json:"rater_id"`
	RatedID          uint      `json:"rated_id"`
	SessionID        uint      `json:"session_id"`
	Score            int       `json:"score"`
	Comment          string    `json:"comment"`
	RaterUsername    string    `json:"rater_username"`
	RaterDisplayName string    `json:"rater_display_name"`
	SessionTitle     string    `json:"session_title"`
	CreatedAt        time.Time `json:"created_at"`
}

// AverageRatingResponse aggregates the ratings a user received.
type AverageRatingResponse struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// endregion

// wasInSession reports whether the user was a confirmed participant of the
// session or its host.
func wasInSession(session models.GameSession, userID uint) bool {
	if session.HostID == userID {
		return true
	}
	var count int64
	database.DB.Model(&models.SessionParticipant{}).
		Where("session_id = ? AND user_id = ? AND status = ?", session.ID, userID, models.ParticipantConfirmed).
		Count(&count)
	return count > 0
}

// SubmitRating godoc
// @Summary      Rate another player
// @Description  Submits a 1-5 rating for a fellow session participant. Rating the same player for the same session again overwrites the earlier rating.
// @Tags         ratings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SubmitRatingInput true "Rating"
// @Success      200 {object} map[string]string "{"message": "Rating updated"}"
// @Success      201 {object} map[string]string "{"message": "Rating submitted"}"
// @Failure      400 {object} ErrorResponse "Self-rating, bad score, or non-participant"
// @Failure      404 {object} ErrorResponse
// @Router       /ratings [post]
func SubmitRating(c *gin.Context) {
	userID, _ := c.Get("userID")
	raterID := userID.(uint)

	var input SubmitRatingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if raterID == input.RatedUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot rate yourself"})
		return
	}
	if input.Score < 1 || input.Score > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
		return
	}

	var session models.GameSession
	if err := database.DB.First(&session, input.SessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if !wasInSession(session, raterID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rater did not participate in this session or is not the host"})
		return
	}
	if !wasInSession(session, input.RatedUserID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rated user was not part of this session"})
		return
	}

	var existing models.UserRating
	err := database.DB.
		Where("rater_id = ? AND rated_id = ? AND session_id = ?", raterID, input.RatedUserID, session.ID).
		First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{"score": input.Score, "comment": input.Comment}
		if err := database.DB.Model(&existing).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rating"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Rating updated"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing rating"})
		return
	}

	rating := models.UserRating{
		RaterID:   raterID,
		RatedID:   input.RatedUserID,
		SessionID: session.ID,
		Score:     input.Score,
		Comment:   input.Comment,
	}
	if err := database.DB.Create(&rating).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit rating"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Rating submitted"})
}

// GetRatingsForUser godoc
// @Summary      List ratings a user received
// @Tags         ratings
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "User ID"
// @Success      200 {array} RatingResponse
// @Router       /ratings/user/{userId} [get]
func GetRatingsForUser(c *gin.Context) {
	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}

	var ratings []models.UserRating
	if err := database.DB.
		Preload("Session").
		Where("rated_id = ?", targetID).
		Order("created_at desc").
		Find(&ratings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
		return
	}

	raterIDs := make([]uint, 0, len(ratings))
	for _, r := range ratings {
		raterIDs = append(raterIDs, r.RaterID)
	}
	displays := loadUserDisplays(raterIDs)

	response := make([]RatingResponse, 0, len(ratings))
	for _, r := range ratings {
		d := displays[r.RaterID]
		sessionTitle := "Unknown Session"
		if r.Session.ID != 0 {
			sessionTitle = r.Session.Title
		}
		response = append(response, RatingResponse{
			ID:               r.ID,
			RaterID:          r.RaterID,
			RatedID:          r.RatedID,
			SessionID:        r.SessionID,
			Score:            r.Score,
			Comment:          r.Comment,
			RaterUsername:    d.Username,
			RaterDisplayName: d.DisplayName,
			SessionTitle:     sessionTitle,
			CreatedAt:        r.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetAverageRatingForUser godoc
// @Summary      Average rating for a user
// @Description  Arithmetic mean and count of all received ratings; {0, 0} when none exist.
// @Tags         ratings
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "User ID"
// @Success      200 {object} AverageRatingResponse
// @Router       /ratings/user/{userId}/average [get]
func GetAverageRatingForUser(c *gin.Context) {
	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}

	var ratings []models.UserRating
	if err := database.DB.Where("rated_id = ?", targetID).Find(&ratings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
		return
	}

	if len(ratings) == 0 {
		c.JSON(http.StatusOK, AverageRatingResponse{Average: 0, Count: 0})
		return
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}

	c.JSON(http.StatusOK, AverageRatingResponse{
		Average: float64(sum) / float64(len(ratings)),
		Count:   int64(len(ratings)),
	})
}

// GetRatingByRaterForSession godoc
// @Summary      Get the caller's rating of a user for a session
// @Tags         ratings
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId path int true "Session ID"
// @Param        userId    path int true "Rated User ID"
// @Success      200 {object} RatingResponse
// @Failure      404 {object} ErrorResponse "No rating yet"
// @Router       /ratings/session/{sessionId}/user/{userId} [get]
func GetRatingByRaterForSession(c *gin.Context) {
	userID, _ := c.Get("userID")
	raterID := userID.(uint)
	sessionID, _ := strconv.Atoi(c.Param("sessionId"))
	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}

	var rating models.UserRating
	err := database.DB.
		Where("rater_id = ? AND rated_id = ? AND session_id = ?", raterID, targetID, sessionID).
		First(&rating).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rating not found"})
		return
	}

	d := loadUserDisplay(rating.RaterID)
	c.JSON(http.StatusOK, RatingResponse{
		ID:               rating.ID,
		RaterID:          rating.RaterID,
		RatedID:          rating.RatedID,
		SessionID:        rating.SessionID,
		Score:            rating.Score,
		Comment:          rating.Comment,
		RaterUsername:    d.Username,
		RaterDisplayName: d.DisplayName,
		CreatedAt:        rating.CreatedAt,
	})
}
