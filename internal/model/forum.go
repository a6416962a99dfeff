package model

import "gorm.io/datatypes"

// ForumPost 讨论区帖子
type ForumPost struct {
	UUIDBase
	Title    string                      `gorm:"size:255;not null" json:"title"`
	Content  string                      `gorm:"type:text;not null" json:"content"`
	Subject  string                      `gorm:"size:100;index" json:"subject"`
	Tags     datatypes.JSONSlice[string] `gorm:"type:json" json:"tags"`
	AuthorID uint                        `gorm:"index" json:"authorId"`
	Author   *User                       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Views    int                         `gorm:"default:0" json:"views"`
	Comments []ForumComment              `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

func (ForumPost) TableName() string {
	return "forum_posts"
}

type ForumComment struct {
	UUIDBase
	PostID   string `gorm:"index;type:varchar(36)" json:"postId"`
	AuthorID uint   `gorm:"index" json:"authorId"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content  string `gorm:"type:text;not null" json:"content"`
}

func (ForumComment) TableName() string {
	return "forum_comments"
}
