package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository/postgres"
	"github.com/dom/courier-backend/internal/service"
	"github.com/dom/courier-backend/internal/testutil"
)

type stubPresence struct {
	online map[uuid.UUID]bool
}

func (s stubPresence) IsOnline(_ context.Context, userID uuid.UUID) (bool, error) {
	return s.online[userID], nil
}

func TestUpdateShortname(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("moves the mention", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().WithShortname("alice_old").Build(t, tdb.DB)

		require.NoError(t, svc.User.UpdateShortname(ctx, service.UpdateShortnameInput{
			UserID:    alice.ID,
			Shortname: "alice_new",
		}))

		found, err := svc.User.GetByShortname(ctx, "alice_new")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)

		_, err = svc.User.GetByShortname(ctx, "alice_old")
		assert.ErrorIs(t, err, domain.ErrMentionNotFound)
	})

	t.Run("unchanged value is its own error", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().WithShortname("steady").Build(t, tdb.DB)

		err := svc.User.UpdateShortname(ctx, service.UpdateShortnameInput{
			UserID:    alice.ID,
			Shortname: "steady",
		})
		assert.ErrorIs(t, err, domain.ErrShortnameUnchanged)
	})

	t.Run("taken value rejected", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().WithShortname("alice").Build(t, tdb.DB)
		testutil.NewUserBuilder().WithShortname("bob").Build(t, tdb.DB)

		err := svc.User.UpdateShortname(ctx, service.UpdateShortnameInput{
			UserID:    alice.ID,
			Shortname: "bob",
		})
		assert.ErrorIs(t, err, domain.ErrShortnameTaken)

		// A group's shortname blocks a user rename too.
		_, err = svc.Group.CreateGroup(ctx, service.CreateGroupInput{
			CreatorID: alice.ID,
			Name:      "claimers",
			Shortname: "claimers",
		})
		require.NoError(t, err)

		err = svc.User.UpdateShortname(ctx, service.UpdateShortnameInput{
			UserID:    alice.ID,
			Shortname: "claimers",
		})
		assert.ErrorIs(t, err, domain.ErrShortnameTaken)
	})
}

func TestGetByShortname(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	tdb.Truncate(t)
	alice, _ := testutil.NewUserBuilder().WithShortname("findme").Build(t, tdb.DB)

	found, err := svc.User.GetByShortname(ctx, "findme")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	// A chat mention does not resolve to a user.
	_, err = svc.Group.CreateGroup(ctx, service.CreateGroupInput{
		CreatorID: alice.ID,
		Name:      "not a user",
		Shortname: "not_a_user",
	})
	require.NoError(t, err)

	_, err = svc.User.GetByShortname(ctx, "not_a_user")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserQueriesReportPresence(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	ctx := context.Background()
	tdb.Truncate(t)

	alice, _ := testutil.NewUserBuilder().WithShortname("online_alice").Build(t, tdb.DB)
	bob, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

	users := service.NewUserService(
		postgres.NewFactory(tdb.DB),
		notify.NopNotifier{},
		stubPresence{online: map[uuid.UUID]bool{alice.ID: true}},
	)

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.Online)

	got, err = users.GetByShortname(ctx, "online_alice")
	require.NoError(t, err)
	assert.True(t, got.Online)

	// A user without a presence entry reads as offline.
	got, err = users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.Online)
}

func TestDeletedUserInvisible(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	tdb.Truncate(t)
	ghost, password := testutil.NewUserBuilder().Deleted().Build(t, tdb.DB)

	_, err := svc.User.GetByID(ctx, ghost.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// A deleted account cannot log in, and the error does not reveal that the
	// account ever existed.
	_, err = svc.Auth.Login(ctx, service.LoginInput{Email: ghost.Email, Password: password})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	tdb.Truncate(t)
	alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

	updated, err := svc.User.UpdateProfile(ctx, service.UpdateProfileInput{
		UserID:    alice.ID,
		FirstName: "Alicia",
		LastName:  "Keys",
		Bio:       "pianist",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)

	var stored domain.User
	require.NoError(t, tdb.DB.First(&stored, "id = ?", alice.ID).Error)
	assert.Equal(t, "Keys", stored.LastName)
	assert.Equal(t, "pianist", stored.Bio)
}

func TestVerify(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	t.Run("requires a confirmed email", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Unconfirmed().Build(t, tdb.DB)

		err := svc.User.Verify(ctx, alice.ID)
		assert.ErrorIs(t, err, domain.ErrUserNotConfirmed)
	})

	t.Run("idempotent once verified", func(t *testing.T) {
		tdb.Truncate(t)
		alice, _ := testutil.NewUserBuilder().Build(t, tdb.DB)

		require.NoError(t, svc.User.Verify(ctx, alice.ID))
		require.NoError(t, svc.User.Verify(ctx, alice.ID))

		var stored domain.User
		require.NoError(t, tdb.DB.First(&stored, "id = ?", alice.ID).Error)
		assert.True(t, stored.IsVerified)
	})
}
