package models

// Comment is a reply attached to a post.
type Comment struct {
	BaseModel

	PostID string `gorm:"type:uuid;index;not null" json:"post_id"`
	Post   *Post  `gorm:"foreignKey:PostID" json:"-"`

	AuthorID string `gorm:"type:uuid;index;not null" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Body string `gorm:"type:text;not null" json:"body"`
}
