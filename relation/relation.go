// Package relation implements the toggle engine shared by every "fact"
// relation between an actor and a target: participating in an event, liking a
// comment, subscribing to an author, marking a favorite activity.
//
// A relation row is a presence/absence fact, it is created by Add, destroyed
// by Remove and never updated. The store's uniqueness constraint on
// (actor, target) is the source of truth: when two Add calls race on the same
// pair, the loser observes model.ErrAlreadyExists from the constraint
// violation, not a duplicate row.
package relation

import (
	"context"
	"time"

	"github.com/Luismorlan/eventmux/model"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Definition describes how a join model is keyed.
type Definition struct {
	// Name identifies the relation in errors, logs and toggle events.
	Name string
	// ActorColumn and TargetColumn are the column names of the pair, together
	// they carry a uniqueness constraint.
	ActorColumn  string
	TargetColumn string
	// ForbidSelf rejects Add when actor and target ids are equal. Only
	// meaningful when both sides are users.
	ForbidSelf bool
}

type options struct {
	publisher message.Publisher
	now       func() time.Time
}

type Option func(*options)

// WithPublisher publishes a ToggleEvent after every committed Add and Remove.
func WithPublisher(p message.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithClock overrides the clock used to stamp toggle events.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Toggle manages one relation R(actor, target). R is the gorm join model,
// newRow builds the row for a pair.
type Toggle[R any] struct {
	db     *gorm.DB
	def    Definition
	newRow func(actorID, targetID uint) R
	opts   options
}

func New[R any](db *gorm.DB, def Definition, newRow func(actorID, targetID uint) R, opts ...Option) *Toggle[R] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Toggle[R]{db: db, def: def, newRow: newRow, opts: o}
}

func (t *Toggle[R]) Definition() Definition {
	return t.def
}

func (t *Toggle[R]) pair(actorID, targetID uint) map[string]interface{} {
	return map[string]interface{}{
		t.def.ActorColumn:  actorID,
		t.def.TargetColumn: targetID,
	}
}

// Add inserts the (actor, target) row and returns it. It fails with
// ErrInvalidSelfReference for a forbidden self pair, before anything else is
// checked, and with ErrAlreadyExists if the row is already there, either
// observed by the pre-check or reported by the uniqueness constraint.
func (t *Toggle[R]) Add(ctx context.Context, actorID, targetID uint) (*R, error) {
	if t.def.ForbidSelf && actorID == targetID {
		return nil, errors.Wrapf(model.ErrInvalidSelfReference, "%s: user %d cannot target itself", t.def.Name, actorID)
	}

	row := t.newRow(actorID, targetID)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := t.exists(tx, actorID, targetID)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrAlreadyExists
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, errors.Wrapf(TranslateError(err), "%s: add (%d, %d)", t.def.Name, actorID, targetID)
	}

	t.publish(ctx, ActionAdded, actorID, targetID)
	return &row, nil
}

// Remove deletes the (actor, target) row, failing with ErrNotFound if there is
// none. The delete is a single statement, no pre-check is needed.
func (t *Toggle[R]) Remove(ctx context.Context, actorID, targetID uint) error {
	res := t.db.WithContext(ctx).Where(t.pair(actorID, targetID)).Delete(new(R))
	if res.Error != nil {
		return errors.Wrapf(TranslateError(res.Error), "%s: remove (%d, %d)", t.def.Name, actorID, targetID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(model.ErrNotFound, "%s: remove (%d, %d)", t.def.Name, actorID, targetID)
	}

	t.publish(ctx, ActionRemoved, actorID, targetID)
	return nil
}

// Exists reports whether the (actor, target) row is present.
func (t *Toggle[R]) Exists(ctx context.Context, actorID, targetID uint) (bool, error) {
	return t.exists(t.db.WithContext(ctx), actorID, targetID)
}

func (t *Toggle[R]) exists(db *gorm.DB, actorID, targetID uint) (bool, error) {
	var count int64
	if err := db.Model(new(R)).Where(t.pair(actorID, targetID)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountFor returns how many actors hold the relation with target.
func (t *Toggle[R]) CountFor(ctx context.Context, targetID uint) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(new(R)).
		Where(map[string]interface{}{t.def.TargetColumn: targetID}).
		Count(&count).Error
	return count, err
}

// ExistsAmong reports, for each of targetIDs, whether the actor holds the
// relation with it. Targets without a row are absent from the map.
func (t *Toggle[R]) ExistsAmong(ctx context.Context, actorID uint, targetIDs []uint) (map[uint]bool, error) {
	res := make(map[uint]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return res, nil
	}
	var held []uint
	err := t.db.WithContext(ctx).Model(new(R)).
		Where(map[string]interface{}{t.def.ActorColumn: actorID, t.def.TargetColumn: targetIDs}).
		Pluck(t.def.TargetColumn, &held).Error
	if err != nil {
		return nil, err
	}
	for _, id := range held {
		res[id] = true
	}
	return res, nil
}

// CountsFor is the batched CountFor. Targets without any row are absent from
// the map.
func (t *Toggle[R]) CountsFor(ctx context.Context, targetIDs []uint) (map[uint]int64, error) {
	res := make(map[uint]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return res, nil
	}
	type countRow struct {
		TargetID uint
		Total    int64
	}
	var rows []countRow
	err := t.db.WithContext(ctx).Model(new(R)).
		Select(t.def.TargetColumn+" AS target_id, COUNT(*) AS total").
		Where(map[string]interface{}{t.def.TargetColumn: targetIDs}).
		Group(t.def.TargetColumn).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		res[r.TargetID] = r.Total
	}
	return res, nil
}

// TargetsOf returns a sub query selecting the target ids the actor holds the
// relation with, to be used in semi-joins such as "id IN (?)".
func (t *Toggle[R]) TargetsOf(actorID uint) *gorm.DB {
	return t.db.Model(new(R)).
		Select(t.def.TargetColumn).
		Where(map[string]interface{}{t.def.ActorColumn: actorID})
}

// ActorsOf returns a sub query selecting the actor ids holding the relation
// with target.
func (t *Toggle[R]) ActorsOf(targetID uint) *gorm.DB {
	return t.db.Model(new(R)).
		Select(t.def.ActorColumn).
		Where(map[string]interface{}{t.def.TargetColumn: targetID})
}
