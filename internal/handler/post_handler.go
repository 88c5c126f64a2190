package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamenight/backend/internal/cache"
	"gamenight/backend/internal/database"
	"gamenight/backend/internal/models"
	"gamenight/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// CreatePostInput defines the structure for creating a community post.
type CreatePostInput struct {
	Title       string   `json:"title"`
	Content     string   `json:"content" binding:"required"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
	ImageFileID *string  `json:"image_file_id"`
}

// UpdatePostInput carries a partial post update with three-state fields.
type UpdatePostInput struct {
	Title       Optional[string]   `json:"title"`
	Content     Optional[string]   `json:"content"`
	Type        Optional[string]   `json:"type"`
	Tags        Optional[[]string] `json:"tags"`
	ImageFileID Optional[string]   `json:"image_file_id"`
}

// PostResponse is a post enriched with author display info and resolved URLs.
type PostResponse struct {
	ID                uint      `json:"id"`
	AuthorID          uint      `json:"author_id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Type              string    `json:"type"`
	Tags              []string  `json:"tags"`
	LikesCount        int       `json:"likes_count"`
	CommentsCount     int       `json:"comments_count"`
	ImageURL          string    `json:"image_url"`
	AuthorUsername    string    `json:"author_username"`
	AuthorDisplayName string    `json:"author_display_name"`
	AuthorAvatarURL   string    `json:"author_avatar_url"`
	CreatedAt         time.Time `json:"created_at"`
}

// endregion

func newPostResponse(post models.CommunityPost, author UserDisplay) PostResponse {
	tags := post.TagList()
	if tags == nil {
		tags = []string{}
	}
	return PostResponse{
		ID:                post.ID,
		AuthorID:          post.AuthorID,
		Title:             post.Title,
		Content:           post.Content,
		Type:              string(post.Type),
		Tags:              tags,
		LikesCount:        post.LikesCount,
		CommentsCount:     post.CommentsCount,
		ImageURL:          storage.URL(post.ImageFileID),
		AuthorUsername:    author.Username,
		AuthorDisplayName: author.DisplayName,
		AuthorAvatarURL:   author.AvatarURL,
		CreatedAt:         post.CreatedAt,
	}
}

// CreatePost godoc
// @Summary      Create a community post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreatePostInput true "Post"
// @Success      201  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse "Empty content or bad type"
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [post]
func CreatePost(c *gin.Context) {
	userID, _ := c.Get("userID")
	authorID := userID.(uint)

	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(input.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Post content cannot be empty"})
		return
	}

	postType := models.PostGeneral
	if input.Type != "" {
		postType = models.PostType(input.Type)
		if !postType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post type"})
			return
		}
	}
	if input.ImageFileID != nil && *input.ImageFileID != "" && !storage.Exists(*input.ImageFileID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown image file reference"})
		return
	}

	post := models.CommunityPost{
		AuthorID:    authorID,
		Title:       input.Title,
		Content:     input.Content,
		Type:        postType,
		ImageFileID: input.ImageFileID,
	}
	post.SetTags(input.Tags)

	if err := database.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	cache.InvalidateRecentPosts()

	c.JSON(http.StatusCreated, newPostResponse(post, loadUserDisplay(authorID)))
}

// UpdatePost godoc
// @Summary      Update a post (author only)
// @Description  Partially updates a post. Null clears the image.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int             true "Post ID"
// @Param        input body UpdatePostInput true "Fields to change"
// @Success      200  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the author"
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [put]
func UpdatePost(c *gin.Context) {
	userID, _ := c.Get("userID")
	postID, _ := strconv.Atoi(c.Param("id"))

	var post models.CommunityPost
	if err := database.DB.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if post.AuthorID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this post"})
		return
	}

	var input UpdatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Content.Present {
		if !input.Content.Valid || strings.TrimSpace(input.Content.Value) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Post content cannot be empty"})
			return
		}
		post.Content = input.Content.Value
	}
	if input.Title.Present {
		post.Title = input.Title.Value
	}
	if input.Type.Present && input.Type.Valid && input.Type.Value != "" {
		postType := models.PostType(input.Type.Value)
		if !postType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post type"})
			return
		}
		post.Type = postType
	}
	if input.Tags.Present {
		post.SetTags(input.Tags.Value)
	}
	if input.ImageFileID.Present {
		if input.ImageFileID.Valid && input.ImageFileID.Value != "" {
			if !storage.Exists(input.ImageFileID.Value) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown image file reference"})
				return
			}
			fileID := input.ImageFileID.Value
			post.ImageFileID = &fileID
		} else {
			post.ImageFileID = nil
		}
	}

	if err := database.DB.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	cache.InvalidateRecentPosts()

	c.JSON(http.StatusOK, newPostResponse(post, loadUserDisplay(post.AuthorID)))
}

// DeletePost godoc
// @Summary      Delete a post (author only)
// @Description  Deletes the post record. The referenced image blob, if any, is left in storage.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Post ID"
// @Success      200 {object} map[string]string "{"message": "Post deleted"}"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /posts/{id} [delete]
func DeletePost(c *gin.Context) {
	userID, _ := c.Get("userID")
	postID, _ := strconv.Atoi(c.Param("id"))

	var post models.CommunityPost
	if err := database.DB.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if post.AuthorID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this post"})
		return
	}

	if err := database.DB.Unscoped().Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	cache.InvalidateRecentPosts()

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// LikePost godoc
// @Summary      Like a post
// @Description  Increments the like counter. There is no per-user tracking; repeated likes all count.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Post ID"
// @Success      200 {object} map[string]string "{"message": "Post liked"}"
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /posts/{id}/like [post]
func LikePost(c *gin.Context) {
	postID, _ := strconv.Atoi(c.Param("id"))

	result := database.DB.Model(&models.CommunityPost{}).
		Where("id = ?", postID).
		Update("likes_count", gorm.Expr("likes_count + 1"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like post"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	cache.InvalidateRecentPosts()

	c.JSON(http.StatusOK, gin.H{"message": "Post liked"})
}

// UnlikePost godoc
// @Summary      Unlike a post
// @Description  Decrements the like counter, clamped at zero.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Post ID"
// @Success      200 {object} map[string]string "{"message": "Post unliked"}"
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /posts/{id}/unlike [post]
func UnlikePost(c *gin.Context) {
	postID, _ := strconv.Atoi(c.Param("id"))

	var post models.CommunityPost
	if err := database.DB.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.LikesCount > 0 {
		if err := database.DB.Model(&post).
			Where("likes_count > 0").
			Update("likes_count", gorm.Expr("likes_count - 1")).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlike post"})
			return
		}
		cache.InvalidateRecentPosts()
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post unliked"})
}

// ListPosts godoc
// @Summary      List community posts
// @Description  Returns a page of posts, newest first, optionally filtered by type or author. A tag filter is applied to the already-fetched page, so a filtered page may hold fewer than the requested number of posts.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        type      query string false "Filter by post type"
// @Param        author_id query int    false "Filter by author"
// @Param        tag       query string false "Filter the returned page by tag"
// @Param        page      query int    false "Page number" default(1)
// @Param        limit     query int    false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[PostResponse]
// @Router       /posts [get]
func ListPosts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	typeFilter := c.Query("type")
	authorFilter := c.Query("author_id")
	tagFilter := strings.TrimSpace(c.Query("tag"))

	// The default first page is the hot path; serve it from redis when possible.
	cacheable := typeFilter == "" && authorFilter == "" && tagFilter == "" && page == 1 && limit == 10
	if cacheable {
		var cached PaginatedResponse[PostResponse]
		if cache.GetRecentPosts(&cached) {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	query := database.DB.Model(&models.CommunityPost{})
	if typeFilter != "" {
		if !models.PostType(typeFilter).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post type"})
			return
		}
		query = query.Where("type = ?", typeFilter)
	}
	if authorFilter != "" {
		query = query.Where("author_id = ?", authorFilter)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count posts"})
		return
	}

	var posts []models.CommunityPost
	if err := query.
		Order("created_at desc, id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	authorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	displays := loadUserDisplays(authorIDs)

	data := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		// Tag filtering happens after the page is materialized, so a
		// filtered page may come back short.
		if tagFilter != "" && !p.HasTag(tagFilter) {
			continue
		}
		data = append(data, newPostResponse(p, displays[p.AuthorID]))
	}

	response := NewPaginatedResponse(data, totalItems, page, limit)

	if cacheable {
		cache.SetRecentPosts(response)
	}

	c.JSON(http.StatusOK, response)
}

// GetPostDetails godoc
// @Summary      Get a post by ID
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Post ID"
// @Success      200 {object} PostResponse
// @Failure      404 {object} ErrorResponse
// @Router       /posts/{id} [get]
func GetPostDetails(c *gin.Context) {
	postID, _ := strconv.Atoi(c.Param("id"))

	var post models.CommunityPost
	if err := database.DB.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, newPostResponse(post, loadUserDisplay(post.AuthorID)))
}
