package handler

import (
	"fmt"
	"net/http"

	"gamenight/backend/internal/config"
	"gamenight/backend/internal/storage"
	"gamenight/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// UploadHandleResponse carries a short-lived upload authorization.
type UploadHandleResponse struct {
	UploadHandle string `json:"upload_handle"`
	UploadURL    string `json:"upload_url"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// RequestUploadHandle godoc
// @Summary      Request an upload handle
// @Description  Issues a short-lived handle authorizing one file upload, and the URL to send it to.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UploadHandleResponse
// @Failure      401 {object} ErrorResponse
// @Router       /files/upload-url [post]
func RequestUploadHandle(c *gin.Context) {
	userID, _ := c.Get("userID")

	handle, err := jwt.GenerateUploadHandle(userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload handle"})
		return
	}

	c.JSON(http.StatusOK, UploadHandleResponse{
		UploadHandle: handle,
		UploadURL:    fmt.Sprintf("%s/api/v1/files/upload", config.AppConfig.PublicBaseURL),
		ExpiresIn:    15 * 60,
	})
}

// UploadFile godoc
// @Summary      Upload a file
// @Description  Stores a multipart file presented with a valid upload handle and returns the blob reference other entities store.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Upload-Handle header   string true "Upload handle from /files/upload-url"
// @Param        file            formData file   true "File content"
// @Success      201 {object} map[string]string "{"file_id": "..."}"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse "Missing or expired handle"
// @Router       /files/upload [post]
func UploadFile(c *gin.Context) {
	handle := c.GetHeader("X-Upload-Handle")
	if handle == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Upload handle required"})
		return
	}

	ownerID, err := jwt.ParseUploadHandle(handle)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'file' form field is required"})
		return
	}

	fileID, err := storage.Save(ownerID, header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file_id": fileID})
}

// ServeFile godoc
// @Summary      Fetch a stored file
// @Tags         files
// @Produce      octet-stream
// @Param        id path string true "File ID"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /files/{id} [get]
func ServeFile(c *gin.Context) {
	path, contentType, err := storage.Path(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	if contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.File(path)
}
