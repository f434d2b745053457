package resolver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserInput(username string) UserInput {
	birthYear := 1990
	return UserInput{
		Username:    username,
		Email:       username + "@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		PhoneNumber: "+12125552368",
		BirthYear:   &birthYear,
	}
}

func TestCreateUser(t *testing.T) {
	r, db := PrepareTestResolver(t)
	ctx := context.Background()

	t.Run("Test User Creation", func(t *testing.T) {
		user, err := r.CreateUser(ctx, "jane.doe", newUserInput("jane.doe"))
		require.Nil(t, err)
		assert.NotZero(t, user.Id)
		assert.Equal(t, "jane.doe", user.Username)
		require.NotNil(t, user.Age)
		assert.Equal(t, 33, *user.Age)
		assert.False(t, user.IsAdmin)
		assert.Empty(t, user.FavoriteActivities)
	})

	t.Run("Test Duplicates", func(t *testing.T) {
		for _, tc := range []struct {
			field string
			input UserInput
		}{
			{"username", UserInput{Username: "jane.doe", Email: "other@example.com", PhoneNumber: "+12125550000"}},
			{"email", UserInput{Username: "other", Email: "jane.doe@example.com", PhoneNumber: "+12125550000"}},
			{"phone_number", UserInput{Username: "other", Email: "other@example.com", PhoneNumber: "+12125552368"}},
		} {
			in := tc.input
			in.FirstName, in.LastName = "John", "Roe"
			_, err := r.CreateUser(ctx, in.Username, in)
			assert.True(t, errors.Is(err, model.ErrAlreadyExists), "%s should be taken: %v", tc.field, err)
			assert.Contains(t, err.Error(), tc.field)
		}
		assert.Equal(t, int64(1), count(t, db, &model.User{}, ""))
	})

	t.Run("Test Validation", func(t *testing.T) {
		for _, tc := range []struct {
			mutate func(in *UserInput)
			field  string
		}{
			{func(in *UserInput) { in.Username = "no spaces" }, "username"},
			{func(in *UserInput) { in.Username = strings.Repeat("u", 151) }, "username"},
			{func(in *UserInput) { in.Email = "not-an-email" }, "email"},
			{func(in *UserInput) { in.FirstName = "" }, "first_name"},
			{func(in *UserInput) { in.LastName = " \t " }, "last_name"},
			{func(in *UserInput) { in.PhoneNumber = "555-1234" }, "phone_number"},
			{func(in *UserInput) { y := 1900; in.BirthYear = &y }, "birth_year"},
			{func(in *UserInput) { y := 2024; in.BirthYear = &y }, "birth_year"},
		} {
			in := newUserInput("valid_name")
			in.Email = "valid@example.com"
			in.PhoneNumber = "+12125559999"
			tc.mutate(&in)
			_, err := r.CreateUser(ctx, in.Username, in)
			requireValidationError(t, err, tc.field)
		}
		assert.Equal(t, int64(1), count(t, db, &model.User{}, ""))
	})

	t.Run("Test Identity Binding", func(t *testing.T) {
		_, err := r.CreateUser(ctx, "", newUserInput("dave"))
		assert.True(t, errors.Is(err, model.ErrUnauthenticated))

		_, err = r.CreateUser(ctx, "carol", newUserInput("mallory"))
		requireValidationError(t, err, "username")
		assert.Equal(t, int64(0), count(t, db, &model.User{}, "username IN ?", []string{"dave", "mallory"}))

		in := newUserInput("")
		in.Email = "carol@example.com"
		in.PhoneNumber = "+12125550003"
		carol, err := r.CreateUser(ctx, "carol", in)
		require.Nil(t, err)
		assert.Equal(t, "carol", carol.Username)
	})
}

func TestReadUsers(t *testing.T) {
	r, db := PrepareTestResolver(t)
	r.Config.PAGE_SIZE = 2
	ctx := context.Background()
	carol := utils.TestCreateUser(t, db, "carol")
	alice := utils.TestCreateUser(t, db, "alice")
	bob := utils.TestCreateUser(t, db, "bob")

	_, err := r.ListUsers(ctx, nil, 1)
	assert.True(t, errors.Is(err, model.ErrUnauthenticated))
	_, err = r.GetUser(ctx, nil, alice.Id)
	assert.True(t, errors.Is(err, model.ErrUnauthenticated))
	_, err = r.Me(ctx, nil)
	assert.True(t, errors.Is(err, model.ErrUnauthenticated))

	page, err := r.ListUsers(ctx, carol, 1)
	require.Nil(t, err)
	assert.Equal(t, int64(3), page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "alice", page.Results[0].Username)
	assert.Equal(t, "bob", page.Results[1].Username)

	me, err := r.Me(ctx, bob)
	require.Nil(t, err)
	assert.Equal(t, bob.Id, me.Id)
	assert.Nil(t, me.Age)

	_, err = r.GetUser(ctx, bob, carol.Id+100)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSubscriptions(t *testing.T) {
	r, db := PrepareTestResolver(t)
	ctx := context.Background()
	alice := utils.TestCreateUser(t, db, "alice")
	bob := utils.TestCreateUser(t, db, "bob")
	carol := utils.TestCreateUser(t, db, "carol")

	_, err := r.Subscribe(ctx, alice, alice.Id)
	assert.True(t, errors.Is(err, model.ErrInvalidSelfReference))

	seen, err := r.Subscribe(ctx, bob, alice.Id)
	require.Nil(t, err)
	assert.True(t, seen.IsSubscribed)
	assert.Equal(t, int64(1), seen.SubscribersCount)

	_, err = r.Subscribe(ctx, carol, alice.Id)
	require.Nil(t, err)
	_, err = r.Subscribe(ctx, bob, carol.Id)
	require.Nil(t, err)
	_, err = r.Subscribe(ctx, bob, alice.Id)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))

	// Self subscription stays rejected once other subscriptions exist.
	_, err = r.Subscribe(ctx, bob, bob.Id)
	assert.True(t, errors.Is(err, model.ErrInvalidSelfReference))

	seenByAlice, err := r.GetUser(ctx, alice, alice.Id)
	require.Nil(t, err)
	assert.False(t, seenByAlice.IsSubscribed)
	assert.Equal(t, int64(2), seenByAlice.SubscribersCount)

	following, err := r.ListSubscriptions(ctx, bob)
	require.Nil(t, err)
	require.Len(t, following, 2)
	assert.Equal(t, "alice", following[0].Username)
	assert.Equal(t, "carol", following[1].Username)
	assert.True(t, following[0].IsSubscribed)

	require.Nil(t, r.Unsubscribe(ctx, bob, alice.Id))
	assert.True(t, errors.Is(r.Unsubscribe(ctx, bob, alice.Id), model.ErrNotFound))
	assert.True(t, errors.Is(r.Unsubscribe(ctx, bob, alice.Id+100), model.ErrNotFound))
	following, err = r.ListSubscriptions(ctx, bob)
	require.Nil(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "carol", following[0].Username)
}

func TestFavoriteActivities(t *testing.T) {
	r, db := PrepareTestResolver(t)
	ctx := context.Background()
	alice := utils.TestCreateUser(t, db, "alice")
	yoga := utils.TestCreateActivity(t, db, "Yoga")
	running := utils.TestCreateActivity(t, db, "Running")
	utils.TestCreateActivity(t, db, "Hiking")

	for _, a := range []*model.Activity{yoga, running} {
		out, err := r.Favorite(ctx, alice, a.Id)
		require.Nil(t, err)
		assert.True(t, out.IsFavorite)
	}
	_, err := r.Favorite(ctx, alice, yoga.Id)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))

	favorites, err := r.ListFavoriteActivities(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, []string{"Running", "Yoga"}, activityNames(favorites))

	me, err := r.Me(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, []string{"Running", "Yoga"}, activityNames(me.FavoriteActivities))

	require.Nil(t, r.Unfavorite(ctx, alice, yoga.Id))
	assert.True(t, errors.Is(r.Unfavorite(ctx, alice, yoga.Id), model.ErrNotFound))
	favorites, err = r.ListFavoriteActivities(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, []string{"Running"}, activityNames(favorites))
}

func TestUpdateUser(t *testing.T) {
	r, db := PrepareTestResolver(t)
	ctx := context.Background()
	alice := utils.TestCreateUser(t, db, "alice")
	bob := utils.TestCreateUser(t, db, "bob")
	admin := utils.TestCreateAdmin(t, db, "admin")

	bio := "runner"
	_, err := r.UpdateUser(ctx, bob, alice.Id, UserPatch{Bio: &bio})
	assert.True(t, errors.Is(err, model.ErrForbidden))

	updated, err := r.UpdateUser(ctx, alice, alice.Id, UserPatch{Bio: &bio})
	require.Nil(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "runner", *updated.Bio)
	assert.Equal(t, "alice", updated.Username)

	name := "Alicia"
	updated, err = r.UpdateUser(ctx, admin, alice.Id, UserPatch{FirstName: &name})
	require.Nil(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "runner", *updated.Bio)

	// The username is the identity subject, renaming would detach the profile
	// from its identity.
	taken := "bob"
	_, err = r.UpdateUser(ctx, alice, alice.Id, UserPatch{Username: &taken})
	requireValidationError(t, err, "username")
	_, err = r.UpdateUser(ctx, admin, alice.Id, UserPatch{Username: &taken})
	requireValidationError(t, err, "username")

	email := bob.Email
	_, err = r.UpdateUser(ctx, alice, alice.Id, UserPatch{Email: &email})
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))

	blank := "   "
	_, err = r.UpdateUser(ctx, alice, alice.Id, UserPatch{LastName: &blank})
	requireValidationError(t, err, "last_name")

	// Keeping one's own unique values is not a conflict.
	same := "alice"
	_, err = r.UpdateUser(ctx, alice, alice.Id, UserPatch{Username: &same})
	require.Nil(t, err)

	bad := "+1"
	_, err = r.UpdateUser(ctx, alice, alice.Id, UserPatch{PhoneNumber: &bad})
	requireValidationError(t, err, "phone_number")
}

func TestDeleteUserCascades(t *testing.T) {
	r, db := PrepareTestResolver(t)
	ctx := context.Background()
	alice := utils.TestCreateUser(t, db, "alice")
	bob := utils.TestCreateUser(t, db, "bob")
	running := utils.TestCreateActivity(t, db, "Running")
	at := testNow.Add(time.Hour)
	alicesEvent := utils.TestCreateEvent(t, db, alice, "Alice's run", at, running)
	bobsEvent := utils.TestCreateEvent(t, db, bob, "Bob's run", at, running)

	// Alice leaves traces everywhere.
	_, err := r.Relations.Participation.Add(ctx, alice.Id, bobsEvent.Id)
	require.Nil(t, err)
	_, err = r.Relations.Participation.Add(ctx, bob.Id, alicesEvent.Id)
	require.Nil(t, err)
	alicesComment := utils.TestCreateComment(t, db, alice, bobsEvent, "nice")
	bobsComment := utils.TestCreateComment(t, db, bob, bobsEvent, "thanks")
	utils.TestCreateComment(t, db, bob, alicesEvent, "on alice's event")
	_, err = r.Relations.Like.Add(ctx, bob.Id, alicesComment.Id)
	require.Nil(t, err)
	_, err = r.Relations.Like.Add(ctx, alice.Id, bobsComment.Id)
	require.Nil(t, err)
	_, err = r.Relations.Subscribe.Add(ctx, alice.Id, bob.Id)
	require.Nil(t, err)
	_, err = r.Relations.Subscribe.Add(ctx, bob.Id, alice.Id)
	require.Nil(t, err)
	_, err = r.Relations.Favorite.Add(ctx, alice.Id, running.Id)
	require.Nil(t, err)

	assert.True(t, errors.Is(r.DeleteUser(ctx, bob, alice.Id), model.ErrForbidden))
	require.Nil(t, r.DeleteUser(ctx, alice, alice.Id))

	assert.Equal(t, int64(1), count(t, db, &model.User{}, ""))
	assert.Equal(t, int64(1), count(t, db, &model.EventPost{}, ""))
	assert.Equal(t, int64(1), count(t, db, &model.Comment{}, ""))
	assert.Equal(t, int64(1), count(t, db, &model.Comment{}, "id = ?", bobsComment.Id))
	assert.Equal(t, int64(0), count(t, db, &model.Like{}, ""))
	assert.Equal(t, int64(0), count(t, db, &model.Participation{}, ""))
	assert.Equal(t, int64(0), count(t, db, &model.Subscribe{}, ""))
	assert.Equal(t, int64(0), count(t, db, &model.FavoriteActivity{}, ""))
	assert.Equal(t, int64(1), count(t, db, &model.ActivityForEventPost{}, ""))
	assert.Equal(t, int64(1), count(t, db, &model.Activity{}, ""))
}

func TestGrantAdmins(t *testing.T) {
	r, db := PrepareTestResolver(t)
	ctx := context.Background()
	utils.TestCreateUser(t, db, "alice")
	utils.TestCreateUser(t, db, "bob")

	granted, err := r.GrantAdmins(ctx, []string{"alice", "nobody"})
	require.Nil(t, err)
	assert.Equal(t, int64(1), granted)
	assert.Equal(t, int64(1), count(t, db, &model.User{}, "is_admin = ?", true))

	granted, err = r.GrantAdmins(ctx, nil)
	require.Nil(t, err)
	assert.Zero(t, granted)
}
