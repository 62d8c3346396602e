package models

// Message is a chat message within a group. Messages are immutable once
// created; there is no edit or delete path.
type Message struct {
	BaseModel

	GroupID string `gorm:"type:uuid;index;not null" json:"group_id"`
	Group   *Group `gorm:"foreignKey:GroupID" json:"-"`

	SenderID string `gorm:"type:uuid;index;not null" json:"sender_id"`
	Sender   *User  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Body string `gorm:"type:text;not null" json:"body"`
}
