package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/service"
	"github.com/dom/courier-backend/internal/testutil"
)

func TestSendMessage(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("messages get sequential per chat ids", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeOneToOne, alice.ID, bob.ID)

		first, err := svc.Message.SendMessage(ctx, service.SendMessageInput{
			AuthorID: alice.ID,
			ChatID:   chat.ID,
			Text:     "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.ID)

		second, err := svc.Message.SendMessage(ctx, service.SendMessageInput{
			AuthorID: bob.ID,
			ChatID:   chat.ID,
			Text:     "hi back",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.ID)
	})

	t.Run("non-member cannot send until they join", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		chat, err := svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "members only",
			Shortname: "members_only",
		})
		require.NoError(t, err)

		_, err = svc.Message.SendMessage(ctx, service.SendMessageInput{
			AuthorID: bob.ID,
			ChatID:   chat.ID,
			Text:     "let me in",
		})
		assert.ErrorIs(t, err, domain.ErrNotMember)

		require.NoError(t, svc.Group.JoinGroup(ctx, service.JoinGroupInput{UserID: bob.ID, ChatID: chat.ID}))

		_, err = svc.Message.SendMessage(ctx, service.SendMessageInput{
			AuthorID: bob.ID,
			ChatID:   chat.ID,
			Text:     "thanks",
		})
		assert.NoError(t, err)
	})

	t.Run("attachments stored as json", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)

		msg, err := svc.Message.SendMessage(ctx, service.SendMessageInput{
			AuthorID:    alice.ID,
			ChatID:      chat.ID,
			Text:        "see attached",
			Attachments: json.RawMessage(`[{"kind":"image","url":"https://example.com/a.png"}]`),
		})
		require.NoError(t, err)

		var stored domain.Message
		require.NoError(t, tdb.DB.First(&stored, "chat_id = ? AND id = ?", chat.ID, msg.ID).Error)
		assert.JSONEq(t, `[{"kind":"image","url":"https://example.com/a.png"}]`, string(stored.Attachments))
	})

	t.Run("sending bumps chat activity", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		quiet := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)
		active := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)
		_ = quiet

		_, err := svc.Message.SendMessage(ctx, service.SendMessageInput{
			AuthorID: alice.ID,
			ChatID:   active.ID,
			Text:     "ping",
		})
		require.NoError(t, err)

		chats, err := svc.Chat.GetUserChats(ctx, alice.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, chats, 2)
		assert.Equal(t, active.ID, chats[0].ID)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)

		_, err := svc.Message.SendMessage(ctx, service.SendMessageInput{
			AuthorID: alice.ID,
			ChatID:   chat.ID,
			Text:     "",
		})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestUpdateAndDeleteMessage(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("only the author may edit", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeOneToOne, alice.ID, bob.ID)
		msg := testutil.CreateMessage(t, tdb.DB, chat.ID, alice.ID, "original")

		_, err := svc.Message.UpdateMessage(ctx, service.UpdateMessageInput{
			CallerID:  bob.ID,
			ChatID:    chat.ID,
			MessageID: msg.ID,
			Text:      "tampered",
		})
		assert.ErrorIs(t, err, domain.ErrNotAuthor)

		updated, err := svc.Message.UpdateMessage(ctx, service.UpdateMessageInput{
			CallerID:  alice.ID,
			ChatID:    chat.ID,
			MessageID: msg.ID,
			Text:      "edited",
		})
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Text)
	})

	t.Run("deleted message disappears from history", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)
		msg := testutil.CreateMessage(t, tdb.DB, chat.ID, alice.ID, "regret")

		require.NoError(t, svc.Message.DeleteMessage(ctx, service.DeleteMessageInput{
			CallerID:  alice.ID,
			ChatID:    chat.ID,
			MessageID: msg.ID,
		}))

		messages, err := svc.Message.GetChatMessages(ctx, service.GetChatMessagesInput{
			CallerID: alice.ID,
			ChatID:   chat.ID,
		})
		require.NoError(t, err)
		assert.Empty(t, messages)

		// Nor can it be edited after the fact.
		_, err = svc.Message.UpdateMessage(ctx, service.UpdateMessageInput{
			CallerID:  alice.ID,
			ChatID:    chat.ID,
			MessageID: msg.ID,
			Text:      "resurrect",
		})
		assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	})

	t.Run("only the author may delete", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
		chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeOneToOne, alice.ID, bob.ID)
		msg := testutil.CreateMessage(t, tdb.DB, chat.ID, alice.ID, "mine")

		err := svc.Message.DeleteMessage(ctx, service.DeleteMessageInput{
			CallerID:  bob.ID,
			ChatID:    chat.ID,
			MessageID: msg.ID,
		})
		assert.ErrorIs(t, err, domain.ErrNotAuthor)
	})
}

func TestGetChatMessages(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	tdb.Truncate(t)
	alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
	eve, _ := testutil.NewUserBuilder().Build(t, tdb.DB)
	chat := testutil.CreateChat(t, tdb.DB, domain.ChatTypeGroup, alice.ID)
	testutil.CreateMessage(t, tdb.DB, chat.ID, alice.ID, "first")
	testutil.CreateMessage(t, tdb.DB, chat.ID, alice.ID, "second")

	messages, err := svc.Message.GetChatMessages(ctx, service.GetChatMessagesInput{
		CallerID: alice.ID,
		ChatID:   chat.ID,
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "second", messages[0].Text)

	// History is membership-gated.
	_, err = svc.Message.GetChatMessages(ctx, service.GetChatMessagesInput{
		CallerID: eve.ID,
		ChatID:   chat.ID,
	})
	assert.ErrorIs(t, err, domain.ErrNotMember)
}
