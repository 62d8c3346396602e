package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openModelDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=1"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Group{}, &Post{}, &Comment{}, &Message{}, &Notification{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestBaseModelGeneratesUUID(t *testing.T) {
	db := openModelDB(t)

	user := User{Username: "alice", Email: "alice@example.com", Password: "x", DisplayName: "Alice"}
	require.NoError(t, db.Create(&user).Error)
	require.NotEmpty(t, user.ID)
}

func TestBaseModelKeepsExplicitID(t *testing.T) {
	db := openModelDB(t)

	user := User{BaseModel: BaseModel{ID: "user-1"}, Username: "bob", Email: "bob@example.com", Password: "x", DisplayName: "Bob"}
	require.NoError(t, db.Create(&user).Error)
	require.Equal(t, "user-1", user.ID)
}

func TestGroupMembershipAssociation(t *testing.T) {
	db := openModelDB(t)

	creator := User{Username: "carol", Email: "carol@example.com", Password: "x", DisplayName: "Carol"}
	require.NoError(t, db.Create(&creator).Error)

	group := Group{Name: "chess", CreatorID: creator.ID, Members: []User{creator}}
	require.NoError(t, db.Create(&group).Error)

	var loaded Group
	require.NoError(t, db.Preload("Members").First(&loaded, "id = ?", group.ID).Error)
	require.Len(t, loaded.Members, 1)
	require.Equal(t, creator.ID, loaded.Members[0].ID)
}
