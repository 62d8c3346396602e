package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/database/testutil"
	"github.com/alumnethq/alumnet/internal/models"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
)

func newPostFixture(t *testing.T) (*PostService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	notifications, err := NewNotificationService(db)
	require.NoError(t, err)
	users, err := NewUserService(db)
	require.NoError(t, err)
	dispatcher, err := NewDispatcher(notifications, users, &fakePusher{online: map[string]bool{}}, &fakeMailer{}, 10)
	require.NoError(t, err)

	svc, err := NewPostService(db, users, dispatcher)
	require.NoError(t, err)
	return svc, db
}

func notificationsFor(t *testing.T, db *gorm.DB, recipientID string) []models.Notification {
	t.Helper()

	var rows []models.Notification
	require.NoError(t, db.Where("recipient_id = ?", recipientID).Find(&rows).Error)
	return rows
}

func TestCreatePostNotifiesMentionedMembers(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	post, err := svc.Create(context.Background(), CreatePostInput{
		AuthorID: alice.ID,
		Title:    "Reunion",
		Body:     "Planning with @[bob](u2), thoughts?",
	})
	require.NoError(t, err)
	require.NotNil(t, post.Author)

	rows := notificationsFor(t, db, bob.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationNewPost, rows[0].Type)
	require.NotNil(t, rows[0].PostID)
	require.Equal(t, post.ID, *rows[0].PostID)
}

func TestCreatePostRequiresTitleAndBody(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")

	_, err := svc.Create(context.Background(), CreatePostInput{AuthorID: alice.ID, Title: " ", Body: "text"})
	require.Error(t, err)
	_, err = svc.Create(context.Background(), CreatePostInput{AuthorID: alice.ID, Title: "t", Body: "  "})
	require.Error(t, err)
}

func TestAddCommentNotifiesPostAuthor(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	post, err := svc.Create(context.Background(), CreatePostInput{
		AuthorID: alice.ID, Title: "Reunion", Body: "Who is coming?",
	})
	require.NoError(t, err)

	comment, err := svc.AddComment(context.Background(), AddCommentInput{
		PostID: post.ID, AuthorID: bob.ID, Body: "Count me in",
	})
	require.NoError(t, err)
	require.NotNil(t, comment.Author)

	rows := notificationsFor(t, db, alice.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationNewComment, rows[0].Type)
}

func TestAddCommentSelfReplyIsSilent(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")

	post, err := svc.Create(context.Background(), CreatePostInput{
		AuthorID: alice.ID, Title: "Reunion", Body: "Who is coming?",
	})
	require.NoError(t, err)

	_, err = svc.AddComment(context.Background(), AddCommentInput{
		PostID: post.ID, AuthorID: alice.ID, Body: "Bump",
	})
	require.NoError(t, err)

	require.Empty(t, notificationsFor(t, db, alice.ID))
}

func TestAddCommentMentionDoesNotDoubleNotifyPostAuthor(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	post, err := svc.Create(context.Background(), CreatePostInput{
		AuthorID: alice.ID, Title: "Reunion", Body: "Who is coming?",
	})
	require.NoError(t, err)

	_, err = svc.AddComment(context.Background(), AddCommentInput{
		PostID:   post.ID,
		AuthorID: bob.ID,
		Body:     "@[alice](u1) and @[carol](u3) should both see this",
	})
	require.NoError(t, err)

	// The post author gets the reply notification only, not a second one for
	// the mention.
	aliceRows := notificationsFor(t, db, alice.ID)
	require.Len(t, aliceRows, 1)
	require.Equal(t, models.NotificationNewComment, aliceRows[0].Type)

	carolRows := notificationsFor(t, db, carol.ID)
	require.Len(t, carolRows, 1)
	require.Equal(t, models.NotificationMentionComment, carolRows[0].Type)
}

func TestListPostsNewestFirst(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")

	for _, title := range []string{"first", "second"} {
		_, err := svc.Create(context.Background(), CreatePostInput{
			AuthorID: alice.ID, Title: title, Body: "body",
		})
		require.NoError(t, err)
	}

	posts, err := svc.List(context.Background(), ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, posts, 2)
}

func TestDeletePostAuthorization(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	post, err := svc.Create(context.Background(), CreatePostInput{
		AuthorID: alice.ID, Title: "Reunion", Body: "body",
	})
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), AddCommentInput{
		PostID: post.ID, AuthorID: bob.ID, Body: "reply",
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), post.ID, bob.ID, false), apperrors.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), post.ID, bob.ID, true))

	_, err = svc.Get(context.Background(), post.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	// Comments go with the post.
	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteComment(t *testing.T) {
	svc, db := newPostFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	post, err := svc.Create(context.Background(), CreatePostInput{
		AuthorID: alice.ID, Title: "Reunion", Body: "body",
	})
	require.NoError(t, err)
	comment, err := svc.AddComment(context.Background(), AddCommentInput{
		PostID: post.ID, AuthorID: bob.ID, Body: "reply",
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteComment(context.Background(), comment.ID, alice.ID, false), apperrors.ErrForbidden)
	require.NoError(t, svc.DeleteComment(context.Background(), comment.ID, bob.ID, false))
	require.ErrorIs(t, svc.DeleteComment(context.Background(), comment.ID, bob.ID, false), apperrors.ErrNotFound)
}
