package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types understood by clients.
const (
	NotificationNewComment      = "new_comment"
	NotificationNewPost         = "new_post"
	NotificationMentionComment  = "mention_comment"
	NotificationMentionChat     = "mention_chat"
	NotificationNewGroupMessage = "new_group_message"
	NotificationAccountApproved = "account_approved"
)

// Notification is a persisted in-app notification. The recipient and sender
// are distinct in normal operation; self-notification is suppressed by the
// dispatching callers, not by the store.
type Notification struct {
	BaseModel

	RecipientID string  `gorm:"type:uuid;index;not null" json:"recipient_id"`
	SenderID    *string `gorm:"type:uuid;index" json:"sender_id,omitempty"`
	Sender      *User   `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL" json:"sender,omitempty"`

	Type    string `gorm:"type:varchar(64);not null" json:"type"`
	Snippet string `gorm:"type:varchar(255)" json:"snippet"`

	// Related entities may be deleted after the fact; the notification row
	// survives with the reference cleared.
	GroupID *string `gorm:"type:uuid;index" json:"group_id,omitempty"`
	Group   *Group  `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	PostID  *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	Post    *Post   `gorm:"foreignKey:PostID;constraint:OnDelete:SET NULL" json:"post,omitempty"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}
