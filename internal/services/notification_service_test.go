package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alumnethq/alumnet/internal/database/testutil"
	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
)

func TestNotificationCreateAndGet(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	group := &models.Group{Name: "Class of 2010", CreatorID: alice.ID}
	require.NoError(t, db.Create(group).Error)

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		RecipientID: bob.ID,
		SenderID:    alice.ID,
		Type:        models.NotificationMentionChat,
		Snippet:     "hello @bob",
		GroupID:     group.ID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.IsRead)
	require.Equal(t, "Class of 2010", created.GroupName)
	require.NotNil(t, created.Sender)
	require.Equal(t, "alice", created.Sender.DisplayName)
}

func TestNotificationCountUnread(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateNotificationInput{
			RecipientID: bob.ID,
			SenderID:    alice.ID,
			Type:        models.NotificationNewComment,
		})
		require.NoError(t, err)
	}

	count, err := svc.CountUnread(context.Background(), bob.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	count, err = svc.CountUnread(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationMarkReadEnforcesOwnership(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		RecipientID: bob.ID,
		SenderID:    alice.ID,
		Type:        models.NotificationNewComment,
	})
	require.NoError(t, err)

	// A foreign requester scopes to nothing and gets a not-found.
	_, err = svc.MarkRead(context.Background(), alice.ID, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	updated, err := svc.MarkRead(context.Background(), bob.ID, created.ID)
	require.NoError(t, err)
	require.True(t, updated.IsRead)
	require.NotNil(t, updated.ReadAt)
}

func TestNotificationMarkAllRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	for i := 0; i < 4; i++ {
		_, err := svc.Create(context.Background(), CreateNotificationInput{
			RecipientID: bob.ID,
			SenderID:    alice.ID,
			Type:        models.NotificationNewPost,
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(context.Background(), bob.ID))

	count, err := svc.CountUnread(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationListNewestFirst(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	snippets := []string{"first", "second", "third"}
	for _, snip := range snippets {
		_, err := svc.Create(context.Background(), CreateNotificationInput{
			RecipientID: bob.ID,
			SenderID:    alice.ID,
			Type:        models.NotificationNewComment,
			Snippet:     snip,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	items, err := svc.ListForRecipient(context.Background(), ListNotificationsInput{RecipientID: bob.ID})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "third", items[0].Snippet)
	require.Equal(t, "first", items[2].Snippet)
}

func TestNotificationPruneRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db)
	require.NoError(t, err)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	read, err := svc.Create(context.Background(), CreateNotificationInput{
		RecipientID: bob.ID,
		SenderID:    alice.ID,
		Type:        models.NotificationNewComment,
	})
	require.NoError(t, err)
	_, err = svc.MarkRead(context.Background(), bob.ID, read.ID)
	require.NoError(t, err)

	unread, err := svc.Create(context.Background(), CreateNotificationInput{
		RecipientID: bob.ID,
		SenderID:    alice.ID,
		Type:        models.NotificationNewComment,
	})
	require.NoError(t, err)

	removed, err := svc.PruneRead(context.Background(), time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = svc.Get(context.Background(), read.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.Get(context.Background(), unread.ID)
	require.NoError(t, err)
}
