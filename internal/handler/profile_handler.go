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

// region --- DTOs ---

// ProfileResponse is the public view of a profile.
type ProfileResponse struct {
	ID              uint      `json:"id"`
	UserID          uint      `json:"user_id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"display_name"`
	Bio             string    `json:"bio"`
	LocationCity    string    `json:"location_city"`
	LocationRegion  string    `json:"location_region"`
	LocationCountry string    `json:"location_country"`
	ExperienceLevel string    `json:"experience_level"`
	AvatarURL       string    `json:"avatar_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// UpdateProfileInput carries a partial profile update. Every field is
// three-state: absent leaves the stored value alone, null clears it, a value
// sets it.
type UpdateProfileInput struct {
	Username        Optional[string] `json:"username"`
	DisplayName     Optional[string] `json:"display_name"`
	Bio             Optional[string] `json:"bio"`
	LocationCity    Optional[string] `json:"location_city"`
	LocationRegion  Optional[string] `json:"location_region"`
	LocationCountry Optional[string] `json:"location_country"`
	ExperienceLevel Optional[string] `json:"experience_level"`
	AvatarFileID    Optional[string] `json:"avatar_file_id"`
}

func newProfileResponse(profile models.Profile) ProfileResponse {
	username := ""
	if profile.Username != nil {
		username = *profile.Username
	}
	return ProfileResponse{
		ID:              profile.ID,
		UserID:          profile.UserID,
		Username:        username,
		DisplayName:     profile.DisplayName,
		Bio:             profile.Bio,
		LocationCity:    profile.LocationCity,
		LocationRegion:  profile.LocationRegion,
		LocationCountry: profile.LocationCountry,
		ExperienceLevel: string(profile.ExperienceLevel),
		AvatarURL:       storage.URL(profile.AvatarFileID),
		CreatedAt:       profile.CreatedAt,
	}
}

// endregion

// GetMyProfile godoc
// @Summary      Get the caller's profile
// @Description  Retrieves the profile of the authenticated user, with the avatar resolved to a URL.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No profile saved yet"
// @Router       /profiles/me [get]
func GetMyProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var profile models.Profile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

// GetUserProfileByID godoc
// @Summary      Get a user's profile
// @Description  Retrieves the profile for a specific user. When the user has never saved a profile, a view is synthesized from the account record.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "User ID"
// @Success      200  {object}  ProfileResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /profiles/{userId} [get]
func GetUserProfileByID(c *gin.Context) {
	targetUserID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(targetUserID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var profile models.Profile
	err = database.DB.Where("user_id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No profile saved yet: present the account as a bare profile
		c.JSON(http.StatusOK, ProfileResponse{
			UserID:      user.ID,
			Username:    user.Nickname,
			DisplayName: user.Nickname,
			CreatedAt:   user.CreatedAt,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

// UpdateMyProfile godoc
// @Summary      Update the caller's profile
// @Description  Applies a partial update to the caller's profile, creating it on first save. Supplying null for a field clears it.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  ProfileResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Username already taken"
// @Router       /profiles/me [put]
func UpdateMyProfile(c *gin.Context) {
	userID, _ := c.Get("userID")
	callerID := userID.(uint)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.ExperienceLevel.Present && input.ExperienceLevel.Valid && input.ExperienceLevel.Value != "" {
		if !models.ExperienceLevel(input.ExperienceLevel.Value).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid experience level"})
			return
		}
	}

	if input.Username.Present && input.Username.Valid && input.Username.Value != "" {
		var taken int64
		database.DB.Model(&models.Profile{}).
			Where("username = ? AND user_id <> ?", input.Username.Value, callerID).
			Count(&taken)
		if taken > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}
	}

	if input.AvatarFileID.Present && input.AvatarFileID.Valid && !storage.Exists(input.AvatarFileID.Value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown avatar file reference"})
		return
	}

	var profile models.Profile
	err := database.DB.Where("user_id = ?", callerID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.Profile{UserID: callerID}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	applyProfileUpdate(&profile, input)

	if err := database.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func applyProfileUpdate(profile *models.Profile, input UpdateProfileInput) {
	if input.Username.Present {
		if input.Username.Valid && input.Username.Value != "" {
			username := input.Username.Value
			profile.Username = &username
		} else {
			profile.Username = nil
		}
	}
	if input.DisplayName.Present {
		profile.DisplayName = input.DisplayName.Value
	}
	if input.Bio.Present {
		profile.Bio = input.Bio.Value
	}
	if input.LocationCity.Present {
		profile.LocationCity = input.LocationCity.Value
	}
	if input.LocationRegion.Present {
		profile.LocationRegion = input.LocationRegion.Value
	}
	if input.LocationCountry.Present {
		profile.LocationCountry = input.LocationCountry.Value
	}
	if input.ExperienceLevel.Present {
		profile.ExperienceLevel = models.ExperienceLevel(input.ExperienceLevel.Value)
	}
	if input.AvatarFileID.Present {
		if input.AvatarFileID.Valid && input.AvatarFileID.Value != "" {
			fileID := input.AvatarFileID.Value
			profile.AvatarFileID = &fileID
		} else {
			profile.AvatarFileID = nil
		}
	}
}

// hasCompleteProfile reports whether the user set the fields required to host
// a session: a username and a location city.
func hasCompleteProfile(userID uint) bool {
	var profile models.Profile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return false
	}
	return profile.Username != nil && *profile.Username != "" && profile.LocationCity != ""
}
