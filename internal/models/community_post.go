package models

import (
	"strings"

	"gorm.io/gorm"
)

// PostType categorizes a community post.
type PostType string

const (
	PostGeneral      PostType = "general"
	PostStrategy     PostType = "strategy"
	PostMeetupReport PostType = "meetup_report"
	PostQuestion     PostType = "question"
)

// Valid reports whether the type is one of the known values.
func (p PostType) Valid() bool {
	switch p {
	case PostGeneral, PostStrategy, PostMeetupReport, PostQuestion:
		return true
	}
	return false
}

// CommunityPost is a post on the community feed.
type CommunityPost struct {
	gorm.Model
	AuthorID      uint   `gorm:"not null;index"`
	Title         string `gorm:"size:255"`
	Content       string `gorm:"not null"`
	Type          PostType `gorm:"size:20;not null;default:'general';index"`
	Tags          string   `gorm:"size:512"` // comma-joined, see TagList
	LikesCount    int      `gorm:"not null;default:0"`
	CommentsCount int      `gorm:"not null;default:0"`
	ImageFileID   *string  `gorm:"size:36"`

	Author User `gorm:"foreignKey:AuthorID"`
}

// TagList splits the stored tag column into individual tags.
func (p *CommunityPost) TagList() []string {
	if p.Tags == "" {
		return nil
	}
	return strings.Split(p.Tags, ",")
}

// SetTags joins tags into the stored column, dropping empty entries.
func (p *CommunityPost) SetTags(tags []string) {
	var clean []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			clean = append(clean, t)
		}
	}
	p.Tags = strings.Join(clean, ",")
}

// HasTag reports whether the post carries the given tag.
func (p *CommunityPost) HasTag(tag string) bool {
	for _, t := range p.TagList() {
		if t == tag {
			return true
		}
	}
	return false
}
