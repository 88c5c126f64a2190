package handler

import (
	"fmt"
	"net/http"
	"testing"

	"gamenight/backend/internal/database"
	"gamenight/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestPath(targetID uint) string {
	return fmt.Sprintf("/api/v1/connections/request/%d", targetID)
}

func statusPath(targetID uint) string {
	return fmt.Sprintf("/api/v1/connections/status/%d", targetID)
}

func getStatus(t *testing.T, router *gin.Engine, token string, targetID uint) ConnectionStatusResponse {
	t.Helper()
	w := doJSON(router, "GET", statusPath(targetID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody[ConnectionStatusResponse](t, w)
}

func TestRequestConnection(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, _ := createUser(t, "bob")

	w := doJSON(router, "POST", requestPath(bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Repeating is a no-op, not an error
	w = doJSON(router, "POST", requestPath(bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already pending")

	// Self target
	w = doJSON(router, "POST", requestPath(alice.ID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown target
	w = doJSON(router, "POST", requestPath(9999), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAcceptConnectionRequest(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, bobToken := createUser(t, "bob")
	_, carolToken := createUser(t, "carol")

	w := doJSON(router, "POST", requestPath(bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var edge models.UserConnection
	require.NoError(t, database.DB.
		Where("follower_id = ? AND following_id = ?", alice.ID, bob.ID).
		First(&edge).Error)

	acceptPath := fmt.Sprintf("/api/v1/connections/%d/accept", edge.ID)

	// Only the addressee may accept
	w = doJSON(router, "POST", acceptPath, carolToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(router, "POST", acceptPath, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, "POST", acceptPath, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Accepting twice conflicts
	w = doJSON(router, "POST", acceptPath, bobToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, "following_them", getStatus(t, router, aliceToken, bob.ID).Status)
	assert.Equal(t, "followed_by_them", getStatus(t, router, bobToken, alice.ID).Status)
}

func TestDeclineConnectionRequest(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, bobToken := createUser(t, "bob")

	w := doJSON(router, "POST", requestPath(bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var edge models.UserConnection
	require.NoError(t, database.DB.
		Where("follower_id = ? AND following_id = ?", alice.ID, bob.ID).
		First(&edge).Error)

	w = doJSON(router, "POST", fmt.Sprintf("/api/v1/connections/%d/decline", edge.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// No record survives a decline
	var count int64
	database.DB.Model(&models.UserConnection{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, "none", getStatus(t, router, aliceToken, bob.ID).Status)
}

func TestRemoveConnection(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, _ := createUser(t, "bob")

	// Nothing to remove yet
	w := doJSON(router, "POST", fmt.Sprintf("/api/v1/connections/remove/%d", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	edge := models.UserConnection{FollowerID: alice.ID, FollowingID: bob.ID, Status: models.ConnectionAccepted}
	require.NoError(t, database.DB.Create(&edge).Error)

	w = doJSON(router, "POST", fmt.Sprintf("/api/v1/connections/remove/%d", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", getStatus(t, router, aliceToken, bob.ID).Status)
}

func TestBlockUser_RemovesExistingEdges(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, bobToken := createUser(t, "bob")

	require.NoError(t, database.DB.Create(&models.UserConnection{
		FollowerID: alice.ID, FollowingID: bob.ID, Status: models.ConnectionAccepted,
	}).Error)
	require.NoError(t, database.DB.Create(&models.UserConnection{
		FollowerID: bob.ID, FollowingID: alice.ID, Status: models.ConnectionPending,
	}).Error)

	w := doJSON(router, "POST", fmt.Sprintf("/api/v1/connections/block/%d", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Only the block edge remains
	var edges []models.UserConnection
	database.DB.Find(&edges)
	require.Len(t, edges, 1)
	assert.Equal(t, alice.ID, edges[0].FollowerID)
	assert.Equal(t, models.ConnectionBlocked, edges[0].Status)

	assert.Equal(t, "blocked_by_me", getStatus(t, router, aliceToken, bob.ID).Status)
	assert.Equal(t, "blocked_by_them", getStatus(t, router, bobToken, alice.ID).Status)

	// The blocked user cannot send a new request
	w = doJSON(router, "POST", requestPath(alice.ID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnblockUser(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, _ := createUser(t, "bob")

	w := doJSON(router, "POST", fmt.Sprintf("/api/v1/connections/unblock/%d", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, database.DB.Create(&models.UserConnection{
		FollowerID: alice.ID, FollowingID: bob.ID, Status: models.ConnectionBlocked,
	}).Error)

	w = doJSON(router, "POST", fmt.Sprintf("/api/v1/connections/unblock/%d", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", getStatus(t, router, aliceToken, bob.ID).Status)
}

func TestConnectionStatus_Precedence(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, _ := createUser(t, "bob")

	assert.Equal(t, "self", getStatus(t, router, aliceToken, alice.ID).Status)
	assert.Equal(t, "none", getStatus(t, router, aliceToken, bob.ID).Status)

	w := doJSON(router, "POST", requestPath(bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "request_sent_by_me", getStatus(t, router, aliceToken, bob.ID).Status)

	// Mutual accepted edges read as friends
	require.NoError(t, database.DB.Model(&models.UserConnection{}).
		Where("follower_id = ?", alice.ID).
		Update("status", models.ConnectionAccepted).Error)
	require.NoError(t, database.DB.Create(&models.UserConnection{
		FollowerID: bob.ID, FollowingID: alice.ID, Status: models.ConnectionAccepted,
	}).Error)
	assert.Equal(t, "friends", getStatus(t, router, aliceToken, bob.ID).Status)
}

func TestFollowerAndFollowingLists(t *testing.T) {
	setupTest(t)
	router := testRouter()

	alice, aliceToken := createUser(t, "alice")
	bob, bobToken := createUser(t, "bob")
	carol, carolToken := createUser(t, "carol")
	createProfile(t, bob)

	// bob follows alice; alice follows carol; carol has asked to follow alice
	require.NoError(t, database.DB.Create(&models.UserConnection{
		FollowerID: bob.ID, FollowingID: alice.ID, Status: models.ConnectionAccepted,
	}).Error)
	require.NoError(t, database.DB.Create(&models.UserConnection{
		FollowerID: alice.ID, FollowingID: carol.ID, Status: models.ConnectionAccepted,
	}).Error)
	require.NoError(t, database.DB.Create(&models.UserConnection{
		FollowerID: carol.ID, FollowingID: alice.ID, Status: models.ConnectionPending,
	}).Error)

	w := doJSON(router, "GET", "/api/v1/connections/followers", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	followers := decodeBody[[]ConnectionUserResponse](t, w)
	require.Len(t, followers, 1)
	assert.Equal(t, bob.ID, followers[0].UserID)
	assert.Equal(t, "bob", followers[0].Username)

	w = doJSON(router, "GET", "/api/v1/connections/following", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	following := decodeBody[[]ConnectionUserResponse](t, w)
	require.Len(t, following, 1)
	assert.Equal(t, carol.ID, following[0].UserID)

	w = doJSON(router, "GET", "/api/v1/connections/requests", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	requests := decodeBody[[]ConnectionUserResponse](t, w)
	require.Len(t, requests, 1)
	assert.Equal(t, carol.ID, requests[0].UserID)

	// Pending edges show in neither follow list
	w = doJSON(router, "GET", "/api/v1/connections/following", carolToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]ConnectionUserResponse](t, w))

	w = doJSON(router, "GET", "/api/v1/connections/followers", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]ConnectionUserResponse](t, w))
}
