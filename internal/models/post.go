package models

// Post is a feed entry authored by an approved member.
type Post struct {
	BaseModel

	AuthorID string `gorm:"type:uuid;index;not null" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Title string `gorm:"type:varchar(255);not null" json:"title"`
	Body  string `gorm:"type:text;not null" json:"body"`

	Comments []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}
