package relation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/utils"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	relations *Relations
	alice     *model.User
	bob       *model.User
	event     *model.EventPost
	activity  *model.Activity
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	db, _ := utils.CreateTempDB(t)
	alice := utils.TestCreateUser(t, db, "alice")
	bob := utils.TestCreateUser(t, db, "bob")
	activity := utils.TestCreateActivity(t, db, "Running")
	event := utils.TestCreateEvent(t, db, alice, "Morning run", time.Now().Add(time.Hour), activity)
	return &fixture{
		db:        db,
		relations: NewRelations(db, opts...),
		alice:     alice,
		bob:       bob,
		event:     event,
		activity:  activity,
	}
}

func countRows(t *testing.T, db *gorm.DB, row interface{}) int64 {
	var count int64
	require.Nil(t, db.Model(row).Count(&count).Error)
	return count
}

func TestAddRemoveRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.relations.Participation

	row, err := p.Add(ctx, f.bob.Id, f.event.Id)
	require.Nil(t, err)
	assert.Equal(t, f.bob.Id, row.UserID)
	assert.Equal(t, f.event.Id, row.EventPostID)

	exists, err := p.Exists(ctx, f.bob.Id, f.event.Id)
	require.Nil(t, err)
	assert.True(t, exists)

	require.Nil(t, p.Remove(ctx, f.bob.Id, f.event.Id))
	exists, err = p.Exists(ctx, f.bob.Id, f.event.Id)
	require.Nil(t, err)
	assert.False(t, exists)

	_, err = p.Add(ctx, f.bob.Id, f.event.Id)
	require.Nil(t, err)
	assert.Equal(t, int64(1), countRows(t, f.db, &model.Participation{}))
}

func TestAddTwiceFailsWithAlreadyExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.relations.Favorite.Add(ctx, f.alice.Id, f.activity.Id)
	require.Nil(t, err)

	_, err = f.relations.Favorite.Add(ctx, f.alice.Id, f.activity.Id)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))
	assert.Equal(t, int64(1), countRows(t, f.db, &model.FavoriteActivity{}))
}

func TestRemoveMissingFailsWithNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comment := utils.TestCreateComment(t, f.db, f.alice, f.event, "see you there")
	_, err := f.relations.Like.Add(ctx, f.alice.Id, comment.Id)
	require.Nil(t, err)

	err = f.relations.Like.Remove(ctx, f.bob.Id, comment.Id)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Equal(t, int64(1), countRows(t, f.db, &model.Like{}))
}

func TestAddUnknownTargetFailsWithNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.relations.Participation.Add(context.Background(), f.bob.Id, f.event.Id+100)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Equal(t, int64(0), countRows(t, f.db, &model.Participation{}))
}

func TestSelfSubscriptionIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.relations.Subscribe

	_, err := s.Add(ctx, f.alice.Id, f.alice.Id)
	assert.True(t, errors.Is(err, model.ErrInvalidSelfReference))
	assert.Equal(t, int64(0), countRows(t, f.db, &model.Subscribe{}))

	// Existing subscriptions make no difference.
	_, err = s.Add(ctx, f.alice.Id, f.bob.Id)
	require.Nil(t, err)
	_, err = s.Add(ctx, f.alice.Id, f.alice.Id)
	assert.True(t, errors.Is(err, model.ErrInvalidSelfReference))
	assert.Equal(t, int64(1), countRows(t, f.db, &model.Subscribe{}))
}

func TestConcurrentAddLeavesOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		existed   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.relations.Subscribe.Add(ctx, f.bob.Id, f.alice.Id)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, model.ErrAlreadyExists) {
				existed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, existed)
	assert.Equal(t, int64(1), countRows(t, f.db, &model.Subscribe{}))
}

func TestAddReliesOnUniquenessConstraint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.relations.Subscribe.Add(ctx, f.bob.Id, f.alice.Id)
	require.Nil(t, err)

	// Hide the existing row from the pre-check, as a concurrent Add committing
	// between the check and the insert would.
	const hideRows = "test:hide_subscribes"
	require.Nil(t, f.db.Callback().Query().After("gorm:query").Register(hideRows, func(db *gorm.DB) {
		if db.Statement.Table != "subscribes" {
			return
		}
		if n, ok := db.Statement.Dest.(*int64); ok {
			*n = 0
		}
	}))
	exists, err := f.relations.Subscribe.Exists(ctx, f.bob.Id, f.alice.Id)
	require.Nil(t, err)
	require.False(t, exists)

	_, err = f.relations.Subscribe.Add(ctx, f.bob.Id, f.alice.Id)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists), "constraint violation should be reported as already exists: %v", err)

	require.Nil(t, f.db.Callback().Query().Remove(hideRows))
	assert.Equal(t, int64(1), countRows(t, f.db, &model.Subscribe{}))
}

func TestCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carol := utils.TestCreateUser(t, f.db, "carol")
	s := f.relations.Subscribe

	for _, follower := range []*model.User{f.bob, carol} {
		_, err := s.Add(ctx, follower.Id, f.alice.Id)
		require.Nil(t, err)
	}
	_, err := s.Add(ctx, f.alice.Id, carol.Id)
	require.Nil(t, err)

	count, err := s.CountFor(ctx, f.alice.Id)
	require.Nil(t, err)
	assert.Equal(t, int64(2), count)

	counts, err := s.CountsFor(ctx, []uint{f.alice.Id, f.bob.Id, carol.Id})
	require.Nil(t, err)
	if diff := cmp.Diff(map[uint]int64{f.alice.Id: 2, carol.Id: 1}, counts); diff != "" {
		t.Errorf("CountsFor mismatch (-want +got):\n%s", diff)
	}

	held, err := s.ExistsAmong(ctx, f.alice.Id, []uint{f.bob.Id, carol.Id})
	require.Nil(t, err)
	if diff := cmp.Diff(map[uint]bool{carol.Id: true}, held); diff != "" {
		t.Errorf("ExistsAmong mismatch (-want +got):\n%s", diff)
	}
}

func TestTargetsOfSubQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := utils.TestCreateEvent(t, f.db, f.alice, "Evening run", time.Now().Add(2*time.Hour), f.activity)
	_, err := f.relations.Participation.Add(ctx, f.bob.Id, other.Id)
	require.Nil(t, err)

	var ids []uint
	require.Nil(t, f.db.Model(&model.EventPost{}).
		Where("id IN (?)", f.relations.Participation.TargetsOf(f.bob.Id)).
		Pluck("id", &ids).Error)
	assert.Equal(t, []uint{other.Id}, ids)

	var actors []uint
	require.Nil(t, f.db.Model(&model.User{}).
		Where("id IN (?)", f.relations.Participation.ActorsOf(other.Id)).
		Pluck("id", &actors).Error)
	assert.Equal(t, []uint{f.bob.Id}, actors)
}

func TestToggleEventsArePublished(t *testing.T) {
	eventbus := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 10},
		watermill.NewStdLogger(false, false),
	)
	defer eventbus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := eventbus.Subscribe(ctx, TopicRelationToggled)
	require.Nil(t, err)

	at := time.Date(2023, 12, 12, 13, 31, 0, 0, time.UTC)
	f := newFixture(t, WithPublisher(eventbus), WithClock(func() time.Time { return at }))

	_, err = f.relations.Participation.Add(ctx, f.bob.Id, f.event.Id)
	require.Nil(t, err)
	require.Nil(t, f.relations.Participation.Remove(ctx, f.bob.Id, f.event.Id))
	// Failed toggles publish nothing.
	require.NotNil(t, f.relations.Participation.Remove(ctx, f.bob.Id, f.event.Id))

	var received []ToggleEvent
	for len(received) < 2 {
		select {
		case msg := <-messages:
			msg.Ack()
			e, err := DecodeToggleEvent(msg)
			require.Nil(t, err)
			received = append(received, e)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for toggle events")
		}
	}

	// Delivery order across messages is not guaranteed.
	sort.Slice(received, func(i, j int) bool { return received[i].Action < received[j].Action })
	want := []ToggleEvent{
		{Relation: "participation", Action: ActionAdded, ActorID: f.bob.Id, TargetID: f.event.Id, At: at},
		{Relation: "participation", Action: ActionRemoved, ActorID: f.bob.Id, TargetID: f.event.Id, At: at},
	}
	if diff := cmp.Diff(want, received); diff != "" {
		t.Errorf("toggle events mismatch (-want +got):\n%s", diff)
	}

	select {
	case msg := <-messages:
		t.Errorf("unexpected extra event %s", string(msg.Payload))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTranslateError(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want error
	}{
		{gorm.ErrDuplicatedKey, model.ErrAlreadyExists},
		{gorm.ErrForeignKeyViolated, model.ErrNotFound},
		{gorm.ErrRecordNotFound, model.ErrNotFound},
		{fmt.Errorf("UNIQUE constraint failed: likes.user_id, likes.comment_id"), model.ErrAlreadyExists},
		{fmt.Errorf(`ERROR: duplicate key value violates unique constraint "subscribes_pkey" (SQLSTATE 23505)`), model.ErrAlreadyExists},
		{fmt.Errorf("FOREIGN KEY constraint failed"), model.ErrNotFound},
		{errors.Wrap(model.ErrForbidden, "event 1"), model.ErrForbidden},
	} {
		assert.Truef(t, errors.Is(TranslateError(tc.err), tc.want), "%v should translate to %v", tc.err, tc.want)
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, TranslateError(other))
	assert.Nil(t, TranslateError(nil))
}
