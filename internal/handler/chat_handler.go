package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamenight/backend/internal/database"
	"gamenight/backend/internal/hub"
	"gamenight/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// SendMessageInput defines the structure for sending a chat message.
type SendMessageInput struct {
	Text string `json:"text" binding:"required"`
}

// ChatMessageResponse is a message enriched with author display info.
type ChatMessageResponse struct {
	ID                uint      `json:"id"`
	SessionID         uint      `json:"session_id"`
	UserID            uint      `json:"user_id"`
	Text              string    `json:"text"`
	AuthorUsername    string    `json:"author_username"`
	AuthorDisplayName string    `json:"author_display_name"`
	AuthorAvatarURL   string    `json:"author_avatar_url"`
	IsOwnMessage      bool      `json:"is_own_message"`
	CreatedAt         time.Time `json:"created_at"`
}

// endregion

var (
	errNotInSession = errors.New("You are not part of this game session's chat")
	errNotConfirmed = errors.New("Your participation in this session is not confirmed yet")
)

// chatAccess returns nil when the user is the session host or a confirmed
// participant, and the refusal to report otherwise.
func chatAccess(session models.GameSession, userID uint) error {
	if session.HostID == userID {
		return nil
	}
	var participant models.SessionParticipant
	err := database.DB.Where("session_id = ? AND user_id = ?", session.ID, userID).First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotInSession
	}
	if err != nil {
		return err
	}
	if participant.Status != models.ParticipantConfirmed {
		return errNotConfirmed
	}
	return nil
}

// SendMessageToSessionChat godoc
// @Summary      Send a chat message
// @Description  Appends a message to the session chat. Only the host and confirmed participants may post.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int              true "Session ID"
// @Param        input body SendMessageInput true "Message"
// @Success      201  {object}  ChatMessageResponse
// @Failure      400  {object}  ErrorResponse "Empty message"
// @Failure      403  {object}  ErrorResponse "Not part of this session's chat"
// @Failure      404  {object}  ErrorResponse
// @Router       /sessions/{id}/chat [post]
func SendMessageToSessionChat(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(input.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text cannot be empty"})
		return
	}

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if err := chatAccess(session, callerID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	message := models.ChatMessage{
		SessionID: session.ID,
		UserID:    callerID,
		Text:      input.Text,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	response := newChatMessageResponse(message, loadUserDisplay(callerID), callerID)

	hub.GlobalHub.Broadcast(session.ID, hub.Event{
		Type:    "chat_message",
		Payload: response,
	})

	c.JSON(http.StatusCreated, response)
}

func newChatMessageResponse(message models.ChatMessage, author UserDisplay, viewerID uint) ChatMessageResponse {
	return ChatMessageResponse{
		ID:                message.ID,
		SessionID:         message.SessionID,
		UserID:            message.UserID,
		Text:              message.Text,
		AuthorUsername:    author.Username,
		AuthorDisplayName: author.DisplayName,
		AuthorAvatarURL:   author.AvatarURL,
		IsOwnMessage:      viewerID != 0 && message.UserID == viewerID,
		CreatedAt:         message.CreatedAt,
	}
}

// ListMessagesForSession godoc
// @Summary      List chat messages
// @Description  Returns all messages for a session in ascending creation order. Works without a token; is_own_message is then always false.
// @Tags         chat
// @Produce      json
// @Param        id path int true "Session ID"
// @Success      200 {array} ChatMessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/chat [get]
func ListMessagesForSession(c *gin.Context) {
	var viewerID uint
	if raw, ok := c.Get("userID"); ok {
		viewerID = raw.(uint)
	}
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	var messages []models.ChatMessage
	if err := database.DB.
		Where("session_id = ?", session.ID).
		Order("created_at asc, id asc").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	userIDs := make([]uint, 0, len(messages))
	for _, m := range messages {
		userIDs = append(userIDs, m.UserID)
	}
	displays := loadUserDisplays(userIDs)

	response := make([]ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, newChatMessageResponse(m, displays[m.UserID], viewerID))
	}

	c.JSON(http.StatusOK, response)
}

// StreamSessionChat godoc
// @Summary      Subscribe to chat events
// @Description  Opens a server-sent events stream delivering new chat messages for the session.
// @Tags         chat
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {string} string "event stream"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/chat/stream [get]
func StreamSessionChat(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)
	sessionID, _ := strconv.Atoi(c.Param("id"))

	var session models.GameSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		return
	}

	if err := chatAccess(session, callerID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	client := make(hub.Client, 16)
	hub.GlobalHub.Subscribe(session.ID, client)
	defer hub.GlobalHub.Unsubscribe(session.ID, client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(message))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
