package jwt

import (
	"errors"
	"time"

	"gamenight/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken creates a new JWT for a given user ID.
func GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour * 24 * 7).Unix(), // Token expires in 7 days
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// GenerateUploadHandle creates a short-lived token authorizing a single file
// upload by the given user.
func GenerateUploadHandle(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID,
		"purpose": "upload",
		"exp":     time.Now().Add(15 * time.Minute).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseUploadHandle validates an upload handle and returns the user ID it was
// issued to.
func ParseUploadHandle(handle string) (uint, error) {
	token, err := jwt.Parse(handle, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid or expired upload handle")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid upload handle claims")
	}
	if purpose, _ := claims["purpose"].(string); purpose != "upload" {
		return 0, errors.New("token is not an upload handle")
	}
	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.New("invalid upload handle subject")
	}

	return uint(userIDFloat), nil
}
