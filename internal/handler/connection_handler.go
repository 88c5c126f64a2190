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

// ConnectionUserResponse is a user entry in a followers/following/requests list.
type ConnectionUserResponse struct {
	ConnectionID uint      `json:"connection_id"`
	UserID       uint      `json:"user_id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url"`
	Since        time.Time `json:"since"`
}

// ConnectionStatusResponse is the derived relationship between the caller and
// a target user.
type ConnectionStatusResponse struct {
	Status            string `json:"status"`
	ConnectionID      *uint  `json:"connection_id,omitempty"`
	MyConnectionID    *uint  `json:"my_connection_id,omitempty"`
	TheirConnectionID *uint  `json:"their_connection_id,omitempty"`
}

// endregion

func parseTargetUserID(c *gin.Context) (uint, bool) {
	targetUserID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return 0, false
	}
	return uint(targetUserID), true
}

func findEdge(followerID, followingID uint) (*models.UserConnection, error) {
	var edge models.UserConnection
	err := database.DB.Where("follower_id = ? AND following_id = ?", followerID, followingID).First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// RequestConnection godoc
// @Summary      Send a follow request
// @Description  Creates a pending edge from the caller to the target. A no-op with a message when a request or connection already exists.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "Target User ID"
// @Success      201 {object} map[string]string "{"message": "Connection request sent"}"
// @Success      200 {object} map[string]string "already pending or connected"
// @Failure      400 {object} ErrorResponse "Self target"
// @Failure      403 {object} ErrorResponse "Blocked"
// @Failure      404 {object} ErrorResponse
// @Router       /connections/request/{userId} [post]
func RequestConnection(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)

	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}
	if callerID == targetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot connect with yourself"})
		return
	}

	var target models.User
	if err := database.DB.First(&target, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	outgoing, err := findEdge(callerID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check connections"})
		return
	}
	if outgoing != nil {
		switch outgoing.Status {
		case models.ConnectionBlocked:
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot connect with a blocked user"})
			return
		case models.ConnectionPending:
			c.JSON(http.StatusOK, gin.H{"message": "Connection request already pending"})
			return
		case models.ConnectionAccepted:
			c.JSON(http.StatusOK, gin.H{"message": "Already connected"})
			return
		}
	}

	incoming, err := findEdge(targetID, callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check connections"})
		return
	}
	if incoming != nil && incoming.Status == models.ConnectionBlocked {
		c.JSON(http.StatusForbidden, gin.H{"error": "This user has blocked you"})
		return
	}

	edge := models.UserConnection{
		FollowerID:  callerID,
		FollowingID: targetID,
		Status:      models.ConnectionPending,
	}
	if err := database.DB.Create(&edge).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create connection request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Connection request sent"})
}

// AcceptConnectionRequest godoc
// @Summary      Accept a follow request
// @Description  Accepts a pending edge addressed to the caller.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Connection ID"
// @Success      200 {object} map[string]string "{"message": "Connection accepted"}"
// @Failure      403 {object} ErrorResponse "Not the addressee"
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Not pending"
// @Router       /connections/{id}/accept [post]
func AcceptConnectionRequest(c *gin.Context) {
	userID, _ := c.Get("userID")
	connectionID, _ := strconv.Atoi(c.Param("id"))

	var edge models.UserConnection
	if err := database.DB.First(&edge, connectionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Connection request not found"})
		return
	}

	if edge.FollowingID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to accept this request"})
		return
	}
	if edge.Status != models.ConnectionPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Request is not pending"})
		return
	}

	if err := database.DB.Model(&edge).Update("status", models.ConnectionAccepted).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connection accepted"})
}

// DeclineOrCancelConnectionRequest godoc
// @Summary      Decline or cancel a follow request
// @Description  Deletes a pending edge. Either endpoint of the edge may do this; no "declined" record is kept.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Connection ID"
// @Success      200 {object} map[string]string "{"message": "Connection request declined"}"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Not pending"
// @Router       /connections/{id}/decline [post]
func DeclineOrCancelConnectionRequest(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)
	connectionID, _ := strconv.Atoi(c.Param("id"))

	var edge models.UserConnection
	if err := database.DB.First(&edge, connectionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Connection request not found"})
		return
	}

	if edge.FollowerID != callerID && edge.FollowingID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to modify this request"})
		return
	}
	if edge.Status != models.ConnectionPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Request is not pending"})
		return
	}

	if err := database.DB.Unscoped().Delete(&edge).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connection request declined"})
}

// RemoveConnection godoc
// @Summary      Unfollow a user
// @Description  Deletes the caller's accepted edge to the target.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "Target User ID"
// @Success      200 {object} map[string]string "{"message": "Connection removed"}"
// @Failure      404 {object} ErrorResponse "No accepted connection"
// @Router       /connections/remove/{userId} [post]
func RemoveConnection(c *gin.Context) {
	userID, _ := c.Get("userID")
	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}

	result := database.DB.Unscoped().
		Where("follower_id = ? AND following_id = ? AND status = ?", userID, targetID, models.ConnectionAccepted).
		Delete(&models.UserConnection{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove connection"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No accepted connection found to remove"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connection removed"})
}

// BlockUser godoc
// @Summary      Block a user
// @Description  Deletes any edge between the pair in both directions, then inserts a blocked edge from the caller to the target.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "Target User ID"
// @Success      200 {object} map[string]string "{"message": "User blocked"}"
// @Failure      400 {object} ErrorResponse "Self target"
// @Failure      404 {object} ErrorResponse
// @Router       /connections/block/{userId} [post]
func BlockUser(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)
	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}
	if callerID == targetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot block yourself"})
		return
	}

	var target models.User
	if err := database.DB.First(&target, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
				callerID, targetID, targetID, callerID).
			Delete(&models.UserConnection{}).Error; err != nil {
			return err
		}
		block := models.UserConnection{
			FollowerID:  callerID,
			FollowingID: targetID,
			Status:      models.ConnectionBlocked,
		}
		return tx.Create(&block).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to block user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User blocked"})
}

// UnblockUser godoc
// @Summary      Unblock a user
// @Description  Deletes the caller's blocked edge to the target, if present.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "Target User ID"
// @Success      200 {object} map[string]string "{"message": "User unblocked"}"
// @Failure      404 {object} ErrorResponse "No blocked record"
// @Router       /connections/unblock/{userId} [post]
func UnblockUser(c *gin.Context) {
	userID, _ := c.Get("userID")
	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}

	result := database.DB.Unscoped().
		Where("follower_id = ? AND following_id = ? AND status = ?", userID, targetID, models.ConnectionBlocked).
		Delete(&models.UserConnection{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unblock user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No blocked record found for this user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User unblocked"})
}

func listConnectionUsers(c *gin.Context, edges []models.UserConnection, pick func(models.UserConnection) uint) {
	userIDs := make([]uint, 0, len(edges))
	for _, e := range edges {
		userIDs = append(userIDs, pick(e))
	}
	displays := loadUserDisplays(userIDs)

	response := make([]ConnectionUserResponse, 0, len(edges))
	for _, e := range edges {
		id := pick(e)
		d := displays[id]
		response = append(response, ConnectionUserResponse{
			ConnectionID: e.ID,
			UserID:       id,
			Username:     d.Username,
			DisplayName:  d.DisplayName,
			AvatarURL:    d.AvatarURL,
			Since:        e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetFollowers godoc
// @Summary      List the caller's followers
// @Description  Users with an accepted edge pointing at the caller.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ConnectionUserResponse
// @Router       /connections/followers [get]
func GetFollowers(c *gin.Context) {
	userID, _ := c.Get("userID")

	var edges []models.UserConnection
	if err := database.DB.
		Where("following_id = ? AND status = ?", userID, models.ConnectionAccepted).
		Find(&edges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch followers"})
		return
	}

	listConnectionUsers(c, edges, func(e models.UserConnection) uint { return e.FollowerID })
}

// GetFollowing godoc
// @Summary      List users the caller follows
// @Description  Users the caller holds an accepted edge to.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ConnectionUserResponse
// @Router       /connections/following [get]
func GetFollowing(c *gin.Context) {
	userID, _ := c.Get("userID")

	var edges []models.UserConnection
	if err := database.DB.
		Where("follower_id = ? AND status = ?", userID, models.ConnectionAccepted).
		Find(&edges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch following"})
		return
	}

	listConnectionUsers(c, edges, func(e models.UserConnection) uint { return e.FollowingID })
}

// GetPendingIncomingRequests godoc
// @Summary      List pending incoming requests
// @Description  Pending edges addressed to the caller, enriched with requester display info.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ConnectionUserResponse
// @Router       /connections/requests [get]
func GetPendingIncomingRequests(c *gin.Context) {
	userID, _ := c.Get("userID")

	var edges []models.UserConnection
	if err := database.DB.
		Where("following_id = ? AND status = ?", userID, models.ConnectionPending).
		Find(&edges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
		return
	}

	listConnectionUsers(c, edges, func(e models.UserConnection) uint { return e.FollowerID })
}

// GetConnectionStatusWithUser godoc
// @Summary      Derive the relationship with a user
// @Description  Computes the relationship from the two directional edges. Blocks dominate, then mutual friendship, then one-directional follows, then pending requests.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "Target User ID"
// @Success      200 {object} ConnectionStatusResponse
// @Failure      400 {object} ErrorResponse
// @Router       /connections/status/{userId} [get]
func GetConnectionStatusWithUser(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)
	targetID, ok := parseTargetUserID(c)
	if !ok {
		return
	}

	if callerID == targetID {
		c.JSON(http.StatusOK, ConnectionStatusResponse{Status: "self"})
		return
	}

	outgoing, err := findEdge(callerID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check connections"})
		return
	}
	incoming, err := findEdge(targetID, callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check connections"})
		return
	}

	c.JSON(http.StatusOK, deriveConnectionStatus(outgoing, incoming))
}

// deriveConnectionStatus applies the fixed precedence order to the two
// directional edges. The stored states are not mutually exclusive, so the
// order of these checks is load-bearing.
func deriveConnectionStatus(outgoing, incoming *models.UserConnection) ConnectionStatusResponse {
	if outgoing != nil && outgoing.Status == models.ConnectionBlocked {
		return ConnectionStatusResponse{Status: "blocked_by_me", ConnectionID: &outgoing.ID}
	}
	if incoming != nil && incoming.Status == models.ConnectionBlocked {
		return ConnectionStatusResponse{Status: "blocked_by_them", ConnectionID: &incoming.ID}
	}
	if outgoing != nil && outgoing.Status == models.ConnectionAccepted &&
		incoming != nil && incoming.Status == models.ConnectionAccepted {
		return ConnectionStatusResponse{
			Status:            "friends",
			MyConnectionID:    &outgoing.ID,
			TheirConnectionID: &incoming.ID,
		}
	}
	if outgoing != nil && outgoing.Status == models.ConnectionAccepted {
		return ConnectionStatusResponse{Status: "following_them", MyConnectionID: &outgoing.ID}
	}
	if incoming != nil && incoming.Status == models.ConnectionAccepted {
		return ConnectionStatusResponse{Status: "followed_by_them", TheirConnectionID: &incoming.ID}
	}
	if outgoing != nil && outgoing.Status == models.ConnectionPending {
		return ConnectionStatusResponse{Status: "request_sent_by_me", MyConnectionID: &outgoing.ID}
	}
	if incoming != nil && incoming.Status == models.ConnectionPending {
		return ConnectionStatusResponse{Status: "request_received_from_them", TheirConnectionID: &incoming.ID}
	}
	return ConnectionStatusResponse{Status: "none"}
}
