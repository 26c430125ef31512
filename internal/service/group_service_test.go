package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/service"
	"github.com/dom/courier-backend/internal/testutil"
)

func TestCreateGroup(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("private group has no shortname", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "weekend plans",
			IsPrivate: true,
		})
		require.NoError(t, err)
		assert.True(t, chat.IsPrivate)

		var member domain.ChatMember
		require.NoError(t, tdb.DB.First(&member, "chat_id = ? AND user_id = ?", chat.ID, alice.ID).Error)
		assert.Equal(t, domain.RoleCreator, member.Role)
	})

	t.Run("public group claims its shortname", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "gophers",
			Shortname: "gophers",
		})
		require.NoError(t, err)

		var mention domain.Mention
		require.NoError(t, tdb.DB.First(&mention, "shortname = ?", "gophers").Error)
		assert.Equal(t, domain.MentionKindChat, mention.OwnerKind)
		assert.Equal(t, chat.ID, mention.OwnerID)
	})

	t.Run("shortname held by a user blocks a public group", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().WithShortname("occupied").Build(t, tdb.DB)

		_, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "squatters",
			Shortname: "occupied",
		})
		assert.ErrorIs(t, err, domain.ErrShortnameTaken)
	})

	t.Run("private group with shortname rejected", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		_, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "hidden",
			IsPrivate: true,
			Shortname: "hidden",
		})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestDeleteGroup(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("only the creator may delete", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID, bob.ID)

		err := svc.Group.DeleteGroup(ctx, service.DeleteGroupInput{CallerID: bob.ID, ChatID: chat.ID})
		assert.ErrorIs(t, err, domain.ErrInsufficientRole)

		require.NoError(t, svc.Group.DeleteGroup(ctx, service.DeleteGroupInput{CallerID: alice.ID, ChatID: chat.ID}))
	})

	t.Run("deleting frees the shortname for reuse", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "transient",
			Shortname: "transient",
		})
		require.NoError(t, err)

		require.NoError(t, svc.Group.DeleteGroup(ctx, service.DeleteGroupInput{CallerID: alice.ID, ChatID: chat.ID}))

		_, err = svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "successor",
			Shortname: "transient",
		})
		assert.NoError(t, err)
	})

	t.Run("one-to-one chats cannot be deleted this way", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeOneToOne, alice.ID, bob.ID)

		err := svc.Group.DeleteGroup(ctx, service.DeleteGroupInput{CallerID: alice.ID, ChatID: chat.ID})
		assert.ErrorIs(t, err, domain.ErrNotGroupChat)
	})
}

func TestGroupVisibilityToggle(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("make public then private releases the shortname", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "book club",
			IsPrivate: true,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Group.MakePublicGroup(ctx, service.MakePublicGroupInput{
			CallerID:  alice.ID,
			ChatID:    chat.ID,
			Shortname: "bookclub",
		}))

		resolved, err := svc.Group.GetByShortname(ctx, "bookclub")
		require.NoError(t, err)
		assert.Equal(t, chat.ID, resolved.ID)

		require.NoError(t, svc.Group.MakePrivateGroup(ctx, service.MakePrivateGroupInput{
			CallerID: alice.ID,
			ChatID:   chat.ID,
		}))

		_, err = svc.Group.GetByShortname(ctx, "bookclub")
		assert.ErrorIs(t, err, domain.ErrMentionNotFound)

		// The freed shortname is claimable by someone else.
		err = svc.User.UpdateShortname(ctx, service.UpdateShortnameInput{UserID: bob.ID, Shortname: "bookclub"})
		assert.NoError(t, err)
	})

	t.Run("state transitions are guarded", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "toggles",
			Shortname: "toggles",
		})
		require.NoError(t, err)

		err = svc.Group.MakePublicGroup(ctx, service.MakePublicGroupInput{
			CallerID:  alice.ID,
			ChatID:    chat.ID,
			Shortname: "toggles_two",
		})
		assert.ErrorIs(t, err, domain.ErrGroupAlreadyPublic)

		require.NoError(t, svc.Group.MakePrivateGroup(ctx, service.MakePrivateGroupInput{
			CallerID: alice.ID,
			ChatID:   chat.ID,
		}))
		err = svc.Group.MakePrivateGroup(ctx, service.MakePrivateGroupInput{
			CallerID: alice.ID,
			ChatID:   chat.ID,
		})
		assert.ErrorIs(t, err, domain.ErrGroupAlreadyPrivate)
	})

	t.Run("only the creator may toggle", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID, bob.ID)

		err := svc.Group.MakePublicGroup(ctx, service.MakePublicGroupInput{
			CallerID:  bob.ID,
			ChatID:    chat.ID,
			Shortname: "hijacked",
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientRole)
	})
}

func TestJoinAndLeaveGroup(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("join public group then leave then rejoin", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "open club",
			Shortname: "openclub",
		})
		require.NoError(t, err)

		require.NoError(t, svc.Group.JoinGroup(ctx, service.JoinGroupInput{UserID: bob.ID, ChatID: chat.ID}))

		err = svc.Group.JoinGroup(ctx, service.JoinGroupInput{UserID: bob.ID, ChatID: chat.ID})
		assert.ErrorIs(t, err, domain.ErrAlreadyMember)

		require.NoError(t, svc.Group.LeaveGroup(ctx, service.LeaveGroupInput{UserID: bob.ID, ChatID: chat.ID}))

		// Rejoining revives the original membership row.
		require.NoError(t, svc.Group.JoinGroup(ctx, service.JoinGroupInput{UserID: bob.ID, ChatID: chat.ID}))

		var count int64
		require.NoError(t, tdb.DB.Model(&domain.ChatMember{}).
			Where("chat_id = ? AND user_id = ?", chat.ID, bob.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("private group cannot be joined", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "invite only",
			IsPrivate: true,
		})
		require.NoError(t, err)

		err = svc.Group.JoinGroup(ctx, service.JoinGroupInput{UserID: bob.ID, ChatID: chat.ID})
		assert.ErrorIs(t, err, domain.ErrGroupPrivate)
	})

	t.Run("creator cannot leave", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)

		err := svc.Group.LeaveGroup(ctx, service.LeaveGroupInput{UserID: alice.ID, ChatID: chat.ID})
		assert.ErrorIs(t, err, domain.ErrCreatorCannotLeave)
	})

	t.Run("leaving a group you never joined", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		eve, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)

		err := svc.Group.LeaveGroup(ctx, service.LeaveGroupInput{UserID: eve.ID, ChatID: chat.ID})
		assert.ErrorIs(t, err, domain.ErrNotMember)
	})
}

func TestUpdateGroup(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("admin renames and moves the shortname", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "old name",
			Shortname: "old_handle",
		})
		require.NoError(t, err)

		newShortname := "new_handle"
		updated, err := svc.Group.UpdateGroup(ctx, service.UpdateGroupInput{
			CallerID:  alice.ID,
			ChatID:    chat.ID,
			Name:      "new name",
			Shortname: &newShortname,
		})
		require.NoError(t, err)
		assert.Equal(t, "new name", updated.Name)

		resolved, err := svc.Group.GetByShortname(ctx, "new_handle")
		require.NoError(t, err)
		assert.Equal(t, chat.ID, resolved.ID)

		_, err = svc.Group.GetByShortname(ctx, "old_handle")
		assert.ErrorIs(t, err, domain.ErrMentionNotFound)
	})

	t.Run("keeping the current shortname is not a conflict", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "stable",
			Shortname: "stable",
		})
		require.NoError(t, err)

		same := "stable"
		_, err = svc.Group.UpdateGroup(ctx, service.UpdateGroupInput{
			CallerID:  alice.ID,
			ChatID:    chat.ID,
			Name:      "stable still",
			Shortname: &same,
		})
		assert.NoError(t, err)
	})

	t.Run("plain members may not update", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID, bob.ID)

		_, err := svc.Group.UpdateGroup(ctx, service.UpdateGroupInput{
			CallerID: bob.ID,
			ChatID:   chat.ID,
			Name:     "renamed",
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientRole)
	})
}
