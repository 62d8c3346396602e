package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/database/testutil"
	apperrors "github.com/alumnethq/alumnet/pkg/errors"
)

func newGroupFixture(t *testing.T) (*GroupService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewGroupService(db)
	require.NoError(t, err)
	return svc, db
}

func TestCreateGroupMakesCreatorAMember(t *testing.T) {
	svc, db := newGroupFixture(t)
	alice := seedUser(t, db, "alice")

	group, err := svc.Create(context.Background(), CreateGroupInput{
		Name:        "Class of 2010",
		Description: "Reunion planning",
		CreatorID:   alice.ID,
	})
	require.NoError(t, err)
	require.Equal(t, alice.ID, group.CreatorID)

	member, err := svc.IsMember(context.Background(), group.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, member)
}

func TestCreateGroupDuplicateNameConflicts(t *testing.T) {
	svc, db := newGroupFixture(t)
	alice := seedUser(t, db, "alice")

	_, err := svc.Create(context.Background(), CreateGroupInput{Name: "Chess", CreatorID: alice.ID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateGroupInput{Name: "Chess", CreatorID: alice.ID})
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestJoinIsIdempotent(t *testing.T) {
	svc, db := newGroupFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	group, err := svc.Create(context.Background(), CreateGroupInput{Name: "Chess", CreatorID: alice.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Join(context.Background(), group.ID, bob.ID))
	require.NoError(t, svc.Join(context.Background(), group.ID, bob.ID))

	ids, err := svc.MemberIDs(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.ElementsMatch(t, []string{alice.ID, bob.ID}, ids)
}

func TestJoinUnknownGroupFails(t *testing.T) {
	svc, db := newGroupFixture(t)
	alice := seedUser(t, db, "alice")

	err := svc.Join(context.Background(), "no-such-group", alice.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLeaveGroup(t *testing.T) {
	svc, db := newGroupFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	group, err := svc.Create(context.Background(), CreateGroupInput{Name: "Chess", CreatorID: alice.ID})
	require.NoError(t, err)
	require.NoError(t, svc.Join(context.Background(), group.ID, bob.ID))

	require.NoError(t, svc.Leave(context.Background(), group.ID, bob.ID))
	member, err := svc.IsMember(context.Background(), group.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, member)

	// Leaving again is a no-op.
	require.NoError(t, svc.Leave(context.Background(), group.ID, bob.ID))
}

func TestMembersListsUsers(t *testing.T) {
	svc, db := newGroupFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	group, err := svc.Create(context.Background(), CreateGroupInput{Name: "Chess", CreatorID: alice.ID})
	require.NoError(t, err)
	require.NoError(t, svc.Join(context.Background(), group.ID, bob.ID))

	members, err := svc.Members(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestListGroupsAlphabetical(t *testing.T) {
	svc, db := newGroupFixture(t)
	alice := seedUser(t, db, "alice")

	for _, name := range []string{"Theatre", "Athletics", "Music"} {
		_, err := svc.Create(context.Background(), CreateGroupInput{Name: name, CreatorID: alice.ID})
		require.NoError(t, err)
	}

	groups, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Equal(t, "Athletics", groups[0].Name)
	require.Equal(t, "Theatre", groups[2].Name)
}
