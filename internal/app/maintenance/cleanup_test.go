package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alumnethq/alumnet/internal/database/testutil"
	"github.com/alumnethq/alumnet/internal/models"
	"github.com/alumnethq/alumnet/internal/services"
)

func TestRunOncePrunesOldReadNotifications(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	notifications, err := services.NewNotificationService(db)
	require.NoError(t, err)

	user := &models.User{
		Username: "alice", Email: "a@example.com", Password: "hash",
		DisplayName: "Alice", IsApproved: true,
	}
	require.NoError(t, db.Create(user).Error)

	old := models.Notification{
		RecipientID: user.ID,
		Type:        models.NotificationNewComment,
		IsRead:      true,
	}
	require.NoError(t, db.Create(&old).Error)
	// Push the record past the retention window.
	stale := time.Now().UTC().AddDate(0, 0, -120)
	require.NoError(t, db.Model(&models.Notification{}).
		Where("id = ?", old.ID).
		Update("created_at", stale).Error)

	fresh := models.Notification{
		RecipientID: user.ID,
		Type:        models.NotificationNewComment,
		IsRead:      true,
	}
	require.NoError(t, db.Create(&fresh).Error)

	unread := models.Notification{
		RecipientID: user.ID,
		Type:        models.NotificationNewComment,
	}
	require.NoError(t, db.Create(&unread).Error)

	cleaner := NewCleaner(notifications, WithRetentionDays(90))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var remaining int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&remaining).Error)
	require.EqualValues(t, 2, remaining)

	var gone int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("id = ?", old.ID).Count(&gone).Error)
	require.Zero(t, gone)
}

func TestRunOnceWithoutServiceIsNoop(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))
}
