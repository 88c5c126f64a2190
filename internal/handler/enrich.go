package handler

import (
	"gamenight/backend/internal/database"
	"gamenight/backend/internal/models"
	"gamenight/backend/internal/storage"
)

// UserDisplay carries the denormalized author/host fields attached to list
// rows. The fallback order is fixed: profile field, then raw user field, then
// a literal.
type UserDisplay struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// loadUserDisplays resolves display info for a set of user IDs with one query
// per table instead of a lookup per row.
func loadUserDisplays(userIDs []uint) map[uint]UserDisplay {
	displays := make(map[uint]UserDisplay, len(userIDs))
	if len(userIDs) == 0 {
		return displays
	}

	// Deduplicate before querying
	seen := make(map[uint]bool, len(userIDs))
	var distinct []uint
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	var users []models.User
	database.DB.Where("id IN ?", distinct).Find(&users)
	usersByID := make(map[uint]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	var profiles []models.Profile
	database.DB.Where("user_id IN ?", distinct).Find(&profiles)
	profilesByUser := make(map[uint]models.Profile, len(profiles))
	for _, p := range profiles {
		profilesByUser[p.UserID] = p
	}

	for _, id := range distinct {
		displays[id] = buildUserDisplay(id, usersByID, profilesByUser)
	}
	return displays
}

func buildUserDisplay(userID uint, users map[uint]models.User, profiles map[uint]models.Profile) UserDisplay {
	display := UserDisplay{
		Username:    "unknown",
		DisplayName: "Unknown User",
	}

	user, hasUser := users[userID]
	if hasUser {
		display.Username = user.Nickname
		display.DisplayName = user.Nickname
	}

	if profile, ok := profiles[userID]; ok {
		if profile.Username != nil && *profile.Username != "" {
			display.Username = *profile.Username
		}
		if profile.DisplayName != "" {
			display.DisplayName = profile.DisplayName
		}
		display.AvatarURL = storage.URL(profile.AvatarFileID)
	}

	return display
}

// loadUserDisplay is the single-row variant used by detail endpoints.
func loadUserDisplay(userID uint) UserDisplay {
	return loadUserDisplays([]uint{userID})[userID]
}
