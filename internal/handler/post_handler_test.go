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

func postPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/v1/posts/%d%s", id, suffix)
}

func createPostVia(t *testing.T, router *gin.Engine, token string, payload map[string]interface{}) PostResponse {
	t.Helper()
	w := doJSON(router, "POST", "/api/v1/posts", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[PostResponse](t, w)
}

func TestCreatePost(t *testing.T) {
	setupTest(t)
	router := testRouter()

	author, token := createUser(t, "author")
	createProfile(t, author)

	post := createPostVia(t, router, token, map[string]interface{}{
		"title":   "Opening strategies",
		"content": "Always take the wheat port.",
		"type":    "strategy",
		"tags":    []string{"catan", "strategy"},
	})
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, "strategy", post.Type)
	assert.Equal(t, []string{"catan", "strategy"}, post.Tags)
	assert.Equal(t, 0, post.LikesCount)
	assert.Equal(t, "author", post.AuthorUsername)
}

func TestCreatePost_Defaults(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")

	post := createPostVia(t, router, token, map[string]interface{}{"content": "hello world"})
	assert.Equal(t, "general", post.Type)
}

func TestCreatePost_Validation(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")

	w := doJSON(router, "POST", "/api/v1/posts", token, map[string]interface{}{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "POST", "/api/v1/posts", token, map[string]interface{}{
		"content": "fine", "type": "rant",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid post type")
}

func TestUpdatePost(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")
	_, otherToken := createUser(t, "other")

	post := createPostVia(t, router, token, map[string]interface{}{"content": "original"})

	w := doRaw(router, "PUT", postPath(post.ID, ""), otherToken, `{"content":"hijacked"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRaw(router, "PUT", postPath(post.ID, ""), token, `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRaw(router, "PUT", postPath(post.ID, ""), token, `{"content":"edited","tags":["updated"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[PostResponse](t, w)
	assert.Equal(t, "edited", resp.Content)
	assert.Equal(t, []string{"updated"}, resp.Tags)
}

func TestDeletePost(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")
	_, otherToken := createUser(t, "other")

	post := createPostVia(t, router, token, map[string]interface{}{"content": "doomed"})

	w := doJSON(router, "DELETE", postPath(post.ID, ""), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, "DELETE", postPath(post.ID, ""), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "GET", postPath(post.ID, ""), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeAndUnlikePost(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")
	post := createPostVia(t, router, token, map[string]interface{}{"content": "likeable"})

	// Likes are a bare counter; the same caller can like repeatedly
	for i := 0; i < 3; i++ {
		w := doJSON(router, "POST", postPath(post.ID, "/like"), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var stored models.CommunityPost
	require.NoError(t, database.DB.First(&stored, post.ID).Error)
	assert.Equal(t, 3, stored.LikesCount)

	for i := 0; i < 5; i++ {
		w := doJSON(router, "POST", postPath(post.ID, "/unlike"), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// The counter never goes below zero
	require.NoError(t, database.DB.First(&stored, post.ID).Error)
	assert.Equal(t, 0, stored.LikesCount)

	w := doJSON(router, "POST", "/api/v1/posts/9999/like", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPosts(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")
	other, otherToken := createUser(t, "other")

	createPostVia(t, router, token, map[string]interface{}{"content": "first", "type": "general"})
	createPostVia(t, router, token, map[string]interface{}{"content": "second", "type": "strategy"})
	createPostVia(t, router, otherToken, map[string]interface{}{"content": "third", "type": "question"})

	w := doJSON(router, "GET", "/api/v1/posts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[PaginatedResponse[PostResponse]](t, w)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, int64(3), resp.Meta.TotalItems)
	// Newest first
	assert.Equal(t, "third", resp.Data[0].Content)

	w = doJSON(router, "GET", "/api/v1/posts?type=strategy", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody[PaginatedResponse[PostResponse]](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "second", resp.Data[0].Content)

	w = doJSON(router, "GET", fmt.Sprintf("/api/v1/posts?author_id=%d", other.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody[PaginatedResponse[PostResponse]](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "third", resp.Data[0].Content)

	w = doJSON(router, "GET", "/api/v1/posts?type=rant", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPosts_TagFilterTrimsThePage(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")

	createPostVia(t, router, token, map[string]interface{}{"content": "tagged", "tags": []string{"catan"}})
	createPostVia(t, router, token, map[string]interface{}{"content": "untagged"})

	w := doJSON(router, "GET", "/api/v1/posts?tag=catan", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The tag filter trims the fetched page but not the total count
	resp := decodeBody[PaginatedResponse[PostResponse]](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "tagged", resp.Data[0].Content)
	assert.Equal(t, int64(2), resp.Meta.TotalItems)
}

func TestGetPostDetails(t *testing.T) {
	setupTest(t)
	router := testRouter()

	_, token := createUser(t, "author")
	post := createPostVia(t, router, token, map[string]interface{}{"content": "readable"})

	w := doJSON(router, "GET", postPath(post.ID, ""), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "readable", decodeBody[PostResponse](t, w).Content)
}
