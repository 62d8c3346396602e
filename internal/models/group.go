package models

// Group is an interest group with a chat room. The creator is always a member
// at creation time and the membership set never contains duplicates (enforced
// by the join table primary key plus the service layer's membership check).
type Group struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	CreatorID string `gorm:"type:uuid;index;not null" json:"creator_id"`
	Creator   *User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	Members []User `gorm:"many2many:group_members;" json:"members,omitempty"`
}
