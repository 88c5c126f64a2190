package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"gamenight/backend/internal/config"
	"gamenight/backend/internal/database"
	"gamenight/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Init makes sure the upload directory exists.
func Init() error {
	return os.MkdirAll(config.AppConfig.UploadDir, 0o755)
}

// Save writes an uploaded file to disk and records it, returning the file ID
// that entities store as their blob reference.
func Save(ownerID uint, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	id := uuid.NewString()
	objectName := id + filepath.Ext(header.Filename)

	dst, err := os.Create(filepath.Join(config.AppConfig.UploadDir, objectName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return "", err
	}

	file := models.StoredFile{
		ID:          id,
		OwnerID:     ownerID,
		ObjectName:  objectName,
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
	}
	if err := database.DB.Create(&file).Error; err != nil {
		return "", err
	}

	return id, nil
}

// Path returns the on-disk path for a stored file ID.
func Path(id string) (string, string, error) {
	var file models.StoredFile
	if err := database.DB.First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", errors.New("file not found")
		}
		return "", "", err
	}
	return filepath.Join(config.AppConfig.UploadDir, file.ObjectName), file.ContentType, nil
}

// URL resolves a blob reference to a fetchable URL. A nil or dangling
// reference resolves to the empty string.
func URL(id *string) string {
	if id == nil || *id == "" {
		return ""
	}
	var count int64
	database.DB.Model(&models.StoredFile{}).Where("id = ?", *id).Count(&count)
	if count == 0 {
		return ""
	}
	return fmt.Sprintf("%s/api/v1/files/%s", config.AppConfig.PublicBaseURL, *id)
}

// Exists reports whether a stored file with the given ID exists.
func Exists(id string) bool {
	var count int64
	database.DB.Model(&models.StoredFile{}).Where("id = ?", id).Count(&count)
	return count > 0
}
