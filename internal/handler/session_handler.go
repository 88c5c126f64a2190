package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gamenight/backend/internal/database"
	"gamenight/backend/internal/models"
	"gamenight/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errSessionFull = errors.New("session is full")

// region --- DTOs ---

// CreateSessionInput defines the structure for creating a game session.
type CreateSessionInput struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	LocationCity    string    `json:"location_city" binding:"required"`
	LocationRegion  string    `json:"location_region" binding:"required"`
	LocationCountry string    `json:"location_country" binding:"required"`
	MeetingPoint    string    `json:"meeting_point"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationHours   *float64  `json:"duration_hours"`
	MaxPlayers      int       `json:"max_players" binding:"required"`
	Difficulty      string    `json:"difficulty"`
	SpecialRules    string    `json:"special_rules"`
	ImageFileID     *string   `json:"image_file_id"`
}

// UpdateSessionInput carries a partial session update with three-state fields.
type UpdateSessionInput struct {
	Title           Optional[string]    `json:"title"`
	Description     Optional[string]    `json:"description"`
	LocationCity    Optional[string]    `json:"location_city"`
	LocationRegion  Optional[string]    `json:"location_region"`
	LocationCountry Optional[string]    `json:"location_country"`
	MeetingPoint    Optional[string]    `json:"meeting_point"`
	ScheduledAt     Optional[time.Time] `json:"scheduled_at"`
	DurationHours   Optional[float64]   `json:"duration_hours"`
	MaxPlayers      Optional[int]       `json:"max_players"`
	Difficulty      Optional[string]    `json:"difficulty"`
	SpecialRules    Optional[string]    `json:"special_rules"`
	ImageFileID     Optional[string]    `json:"image_file_id"`
}

// ParticipantResponse is a roster entry on a session.
type ParticipantResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Status      string    `json:"status"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// SessionResponse is a session enriched with host display info, the roster
// and the resolved image URL.
type SessionResponse struct {
	ID              uint                  `json:"id"`
	HostID          uint                  `json:"host_id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	LocationCity    string                `json:"location_city"`
	LocationRegion  string                `json:"location_region"`
	LocationCountry string                `json:"location_country"`
	MeetingPoint    string                `json:"meeting_point"`
	ScheduledAt     time.Time             `json:"scheduled_at"`
	DurationHours   float64               `json:"duration_hours"`
	MaxPlayers      int                   `json:"max_players"`
	Difficulty      string                `json:"difficulty"`
	SpecialRules    string                `json:"special_rules"`
	Status          string                `json:"status"`
	ImageURL        string                `json:"image_url"`
	HostUsername    string                `json:"host_username"`
	HostDisplayName string                `json:"host_display_name"`
	HostAvatarURL   string                `json:"host_avatar_url"`
	CurrentPlayers  int                   `json:"current_players"`
	Participants    []ParticipantResponse `json:"participants"`
	CreatedAt       time.Time             `json:"created_at"`
}

// endregion

func newSessionResponse(session models.GameSession, participants []models.SessionParticipant, displays map[uint]UserDisplay) SessionResponse {
	host := displays[session.HostID]

	participantResponses := make([]ParticipantResponse, 0, len(participants))
	confirmed := 0
	for _, p := range participants {
		if p.Status == models.ParticipantConfirmed {
			confirmed++
		}
		d := displays[p.UserID]
		participantResponses = append(participantResponses, ParticipantResponse{
			ID:          p.ID,
			UserID:      p.UserID,
			Status:      string(p.Status),
			Username:    d.Username,
			DisplayName: d.DisplayName,
			JoinedAt:    p.CreatedAt,
		})
	}

	return SessionResponse{
		ID:              session.ID,
		HostID:          session.HostID,
		Title:           session.Title,
		Description:     session.Description,
		LocationCity:    session.LocationCity,
		LocationRegion:  session.LocationRegion,
		LocationCountry: session.LocationCountry,
		MeetingPoint:    session.MeetingPoint,
		ScheduledAt:     session.ScheduledAt,
		DurationHours:   session.DurationHours,
		MaxPlayers:      session.MaxPlayers,
		Difficulty:      string(session.Difficulty),
		SpecialRules:    session.SpecialRules,
		Status:          string(session.Status),
		ImageURL:        storage.URL(session.ImageFileID),
		HostUsername:    host.Username,
		HostDisplayName: host.DisplayName,
		HostAvatarURL:   host.AvatarURL,
		CurrentPlayers:  confirmed,
		Participants:    participantResponses,
		CreatedAt:       session.CreatedAt,
	}
}

func loadSessionResponse(session models.GameSession) SessionResponse {
	var participants []models.SessionParticipant
	database.DB.Where("session_id = ?", session.ID).Find(&participants)

	ids := []uint{session.HostID}
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}

	return newSessionResponse(session, participants, loadUserDisplays(ids))
}

// CreateGameSession godoc
// @Summary      Create a game session
// @Description  Creates a session with status "open" and enrolls the host as a confirmed participant. The host must have a complete profile (username and city).
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateSessionInput true "Session Info"
// @Success      201  {object}  SessionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /sessions [post]
func CreateGameSession(c *gin.Context) {
	userID, _ := c.Get("userID")
	hostID := userID.(uint)

	var input CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !hasCompleteProfile(hostID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Profile is incomplete. Please ensure username and location are set."})
		return
	}
	if input.MaxPlayers <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum players must be a positive number"})
		return
	}
	if !input.ScheduledAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scheduled date and time must be in the future"})
		return
	}
	if input.Difficulty != "" && !models.ExperienceLevel(input.Difficulty).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid difficulty level"})
		return
	}
	if input.ImageFileID != nil && *input.ImageFileID != "" && !storage.Exists(*input.ImageFileID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown image file reference"})
		return
	}

	duration := 3.0
	if input.DurationHours != nil {
		duration = *input.DurationHours
	}

	session := models.GameSession{
		HostID:          hostID,
		Title:           input.Title,
		Description:     input.Description,
		LocationCity:    input.LocationCity,
		LocationRegion:  input.LocationRegion,
		LocationCountry: input.LocationCountry,
		MeetingPoint:    input.MeetingPoint,
		ScheduledAt:     input.ScheduledAt,
		DurationHours:   duration,
		MaxPlayers:      input.MaxPlayers,
		Difficulty:      models.ExperienceLevel(input.Difficulty),
		SpecialRules:    input.SpecialRules,
		Status:          models.SessionOpen,
		ImageFileID:     input.ImageFileID,
	}

	// Session and host enrollment commit together
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		host := models.SessionParticipant{
			SessionID: session.ID,
			UserID:    hostID,
			Status:    models.ParticipantConfirmed,
		}
		return tx.Create(&host).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, loadSessionResponse(session))
}

// UpdateGameSession godoc
// @Summary      Update a game session (host only)
// @Description  Partially updates an open session. Null clears the image; null or "" clears the difficulty.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                true "Session ID"
// @Param        input body UpdateSessionInput true "Fields to change"
// @Success      200  {object}  SessionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Only the host can update the session"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Session is not open"
// @Router       /sessions/{id} [put]
func UpdateGameSession(c *gin.Context) {
	userID, _ := c.Get("userID")
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if session.HostID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can update the game session"})
		return
	}
	if session.Status != models.SessionOpen {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot update a session that is not open"})
		return
	}

	var input UpdateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.ScheduledAt.Present && input.ScheduledAt.Valid && !input.ScheduledAt.Value.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scheduled date and time must be in the future"})
		return
	}
	if input.MaxPlayers.Present && input.MaxPlayers.Valid && input.MaxPlayers.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum players must be a positive number"})
		return
	}
	if input.Difficulty.Present && input.Difficulty.Valid && input.Difficulty.Value != "" &&
		!models.ExperienceLevel(input.Difficulty.Value).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid difficulty level"})
		return
	}
	if input.ImageFileID.Present && input.ImageFileID.Valid && input.ImageFileID.Value != "" &&
		!storage.Exists(input.ImageFileID.Value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown image file reference"})
		return
	}

	applySessionUpdate(&session, input)

	if err := database.DB.Save(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session"})
		return
	}

	c.JSON(http.StatusOK, loadSessionResponse(session))
}

func applySessionUpdate(session *models.GameSession, input UpdateSessionInput) {
	if input.Title.Present && input.Title.Valid {
		session.Title = input.Title.Value
	}
	if input.Description.Present {
		session.Description = input.Description.Value
	}
	if input.LocationCity.Present && input.LocationCity.Valid {
		session.LocationCity = input.LocationCity.Value
	}
	if input.LocationRegion.Present && input.LocationRegion.Valid {
		session.LocationRegion = input.LocationRegion.Value
	}
	if input.LocationCountry.Present && input.LocationCountry.Valid {
		session.LocationCountry = input.LocationCountry.Value
	}
	if input.MeetingPoint.Present {
		session.MeetingPoint = input.MeetingPoint.Value
	}
	if input.ScheduledAt.Present && input.ScheduledAt.Valid {
		session.ScheduledAt = input.ScheduledAt.Value
	}
	if input.DurationHours.Present && input.DurationHours.Valid {
		session.DurationHours = input.DurationHours.Value
	}
	if input.MaxPlayers.Present && input.MaxPlayers.Valid {
		session.MaxPlayers = input.MaxPlayers.Value
	}
	if input.Difficulty.Present {
		// null and "" both clear the difficulty
		session.Difficulty = models.ExperienceLevel(input.Difficulty.Value)
	}
	if input.SpecialRules.Present {
		session.SpecialRules = input.SpecialRules.Value
	}
	if input.ImageFileID.Present {
		if input.ImageFileID.Valid && input.ImageFileID.Value != "" {
			fileID := input.ImageFileID.Value
			session.ImageFileID = &fileID
		} else {
			session.ImageFileID = nil
		}
	}
}

// JoinSession godoc
// @Summary      Join a session
// @Description  Adds the caller as a confirmed participant. Flips the session to "full" when the join fills the last seat.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} map[string]string "{"message": "Successfully joined the session"}"
// @Failure      400 {object} ErrorResponse "Host cannot join their own session"
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Already joined, session full, or session not open"
// @Router       /sessions/{id}/join [post]
func JoinSession(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if session.Status != models.SessionOpen {
		c.JSON(http.StatusConflict, gin.H{"error": "This session is not open for new participants"})
		return
	}
	if session.HostID == callerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot join your own session"})
		return
	}

	var existing models.SessionParticipant
	err := database.DB.Where("session_id = ? AND user_id = ?", session.ID, callerID).First(&existing).Error
	if err == nil {
		switch existing.Status {
		case models.ParticipantConfirmed:
			c.JSON(http.StatusConflict, gin.H{"error": "You are already a participant in this session"})
			return
		case models.ParticipantPendingApproval:
			c.JSON(http.StatusConflict, gin.H{"error": "You have already requested to join this session"})
			return
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check participation"})
		return
	}

	// The seat count check, the insert and the capacity flip commit together
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var confirmed int64
		if err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND status = ?", session.ID, models.ParticipantConfirmed).
			Count(&confirmed).Error; err != nil {
			return err
		}
		if int(confirmed) >= session.MaxPlayers {
			return errSessionFull
		}

		participant := models.SessionParticipant{
			SessionID: session.ID,
			UserID:    callerID,
			Status:    models.ParticipantConfirmed,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}

		if int(confirmed)+1 >= session.MaxPlayers {
			return tx.Model(&session).Update("status", models.SessionFull).Error
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, errSessionFull) {
			c.JSON(http.StatusConflict, gin.H{"error": "This session is full"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined the session"})
}

// LeaveSession godoc
// @Summary      Leave a session
// @Description  Removes the caller's participant record. Flips a full session back to "open".
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} map[string]string "{"message": "Successfully left the session"}"
// @Failure      403 {object} ErrorResponse "Host cannot leave their own session"
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Session already completed or cancelled"
// @Router       /sessions/{id}/leave [post]
func LeaveSession(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if session.HostID == callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Host cannot leave their own session. Cancel the session instead."})
		return
	}
	if session.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot leave a completed or cancelled session"})
		return
	}

	var participant models.SessionParticipant
	if err := database.DB.Where("session_id = ? AND user_id = ?", session.ID, callerID).First(&participant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not a participant in this session"})
		return
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(&participant).Error; err != nil {
			return err
		}
		if session.Status == models.SessionFull {
			return tx.Model(&session).Update("status", models.SessionOpen).Error
		}
		return nil
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully left the session"})
}

// CancelSession godoc
// @Summary      Cancel a session (host only)
// @Description  Moves any non-terminal session to "cancelled".
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} map[string]string "{"message": "Session cancelled successfully"}"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Session already completed or cancelled"
// @Router       /sessions/{id}/cancel [post]
func CancelSession(c *gin.Context) {
	userID, _ := c.Get("userID")
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if session.HostID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can cancel the session"})
		return
	}
	if session.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "Session is already completed or cancelled"})
		return
	}

	if err := database.DB.Model(&session).Update("status", models.SessionCancelled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session cancelled successfully"})
}

// CompleteSession godoc
// @Summary      Mark a session completed (host only)
// @Description  Moves any non-cancelled, non-completed session to "completed".
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} map[string]string "{"message": "Session marked as completed"}"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /sessions/{id}/complete [post]
func CompleteSession(c *gin.Context) {
	userID, _ := c.Get("userID")
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if session.HostID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can mark the session as completed"})
		return
	}
	if session.Status == models.SessionCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Session is already marked as completed"})
		return
	}
	if session.Status == models.SessionCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot complete a cancelled session"})
		return
	}

	if err := database.DB.Model(&session).Update("status", models.SessionCompleted).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session marked as completed"})
}

// ListOpenGameSessions godoc
// @Summary      List open sessions
// @Description  Returns open sessions with a future scheduled time, ascending by scheduled time, enriched with host info and rosters.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} SessionResponse
// @Router       /sessions/open [get]
func ListOpenGameSessions(c *gin.Context) {
	var sessions []models.GameSession
	if err := database.DB.
		Where("status = ? AND scheduled_at > ?", models.SessionOpen, time.Now()).
		Order("scheduled_at asc").
		Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}

	sessionIDs := make([]uint, 0, len(sessions))
	userIDs := make([]uint, 0, len(sessions))
	for _, s := range sessions {
		sessionIDs = append(sessionIDs, s.ID)
		userIDs = append(userIDs, s.HostID)
	}

	var participants []models.SessionParticipant
	if len(sessionIDs) > 0 {
		database.DB.Where("session_id IN ?", sessionIDs).Find(&participants)
	}
	participantsBySession := make(map[uint][]models.SessionParticipant)
	for _, p := range participants {
		participantsBySession[p.SessionID] = append(participantsBySession[p.SessionID], p)
		userIDs = append(userIDs, p.UserID)
	}

	displays := loadUserDisplays(userIDs)

	response := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, newSessionResponse(s, participantsBySession[s.ID], displays))
	}

	c.JSON(http.StatusOK, response)
}

// GetGameSessionByID godoc
// @Summary      Get a session by ID
// @Description  Returns a single enriched session.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} SessionResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id} [get]
func GetGameSessionByID(c *gin.Context) {
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	c.JSON(http.StatusOK, loadSessionResponse(session))
}
