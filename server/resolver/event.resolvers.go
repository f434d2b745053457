package resolver

import (
	"context"
	"net/http"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/relation"
	"github.com/Luismorlan/eventmux/server/middlewares"
	"github.com/Luismorlan/eventmux/utils"
	. "github.com/Luismorlan/eventmux/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (r *Resolver) loadEvents(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Activities", func(db *gorm.DB) *gorm.DB { return db.Order("name asc") }).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("username asc") })
}

// ListEvents returns one page of events matching filter, newest datetime
// first.
func (r *Resolver) ListEvents(ctx context.Context, actor *model.User, filter EventFilter, page int) (*Page[EventOutput], error) {
	if err := middlewares.Authorize(middlewares.ActionList, http.MethodGet, actor, 0); err != nil {
		return nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, err
	}

	scopes := r.eventScopes(actor, filter, r.now())
	db := r.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&model.EventPost{}).Scopes(scopes...).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "cannot count events")
	}
	var events []*model.EventPost
	if err := r.loadEvents(db).
		Scopes(scopes...).
		Scopes(r.paginate(page)).
		Order("event_posts.datetime desc").
		Order("event_posts.id desc").
		Find(&events).Error; err != nil {
		return nil, errors.Wrap(err, "cannot list events")
	}

	results, err := r.presentEvents(ctx, actor, events)
	if err != nil {
		return nil, err
	}
	return &Page[EventOutput]{Count: count, Page: page, PageSize: r.pageSize(), Results: results}, nil
}

func (r *Resolver) GetEvent(ctx context.Context, actor *model.User, id uint) (*EventOutput, error) {
	if err := middlewares.Authorize(middlewares.ActionRetrieve, http.MethodGet, actor, 0); err != nil {
		return nil, err
	}
	var event model.EventPost
	if err := r.loadEvents(r.DB.WithContext(ctx)).First(&event, id).Error; err != nil {
		return nil, errors.Wrapf(relation.TranslateError(err), "event %d", id)
	}
	res, err := r.presentEvents(ctx, actor, []*model.EventPost{&event})
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

// linkActivities replaces the activity set of eventID with ids. Unknown ids
// fail the whole operation.
func linkActivities(tx *gorm.DB, eventID uint, ids []uint) error {
	ids = utils.UniqueUints(ids)
	var found []uint
	if err := tx.Model(&model.Activity{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) != len(ids) {
		known := make(map[uint]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				return model.NewValidationError("activities", "invalid pk \"%d\" - object does not exist", id)
			}
		}
	}

	if err := tx.Where("event_post_id = ?", eventID).Delete(&model.ActivityForEventPost{}).Error; err != nil {
		return err
	}
	links := make([]model.ActivityForEventPost, 0, len(ids))
	for _, id := range ids {
		links = append(links, model.ActivityForEventPost{EventPostID: eventID, ActivityID: id})
	}
	return tx.Create(&links).Error
}

// CreateEvent publishes an event authored by actor. The event row and all of
// its activity links are created in one transaction.
func (r *Resolver) CreateEvent(ctx context.Context, actor *model.User, input EventInput) (*EventOutput, error) {
	if err := middlewares.Authorize(middlewares.ActionCreate, http.MethodPost, actor, 0); err != nil {
		return nil, err
	}
	input = input.trimmed()
	if err := validateInput(input); err != nil {
		return nil, err
	}
	datetime, err := parseDatetime("datetime", input.Datetime)
	if err != nil {
		return nil, err
	}

	event := model.EventPost{
		Name:        input.Name,
		Description: input.Description,
		Datetime:    datetime,
		Duration:    input.Duration,
		Location:    input.Location,
		AuthorID:    actor.Id,
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Activities", "Participants").Create(&event).Error; err != nil {
			return err
		}
		return linkActivities(tx, event.Id, input.Activities)
	})
	if err != nil {
		return nil, errors.Wrap(relation.TranslateError(err), "cannot create event")
	}

	Log.WithField("event_id", event.Id).WithField("user_id", actor.Id).Info("event created")
	return r.GetEvent(ctx, actor, event.Id)
}

// UpdateEvent applies patch to the event, the activity set is replaced as a
// whole.
func (r *Resolver) UpdateEvent(ctx context.Context, actor *model.User, id uint, patch EventPatch) (*EventOutput, error) {
	event, err := findByID[model.EventPost](r.DB.WithContext(ctx), "event", id)
	if err != nil {
		return nil, err
	}
	if err := middlewares.Authorize(middlewares.ActionUpdate, http.MethodPatch, actor, event.AuthorID); err != nil {
		return nil, err
	}

	input := patch.apply(EventInput{
		Name:        event.Name,
		Description: event.Description,
		Datetime:    formatTime(event.Datetime),
		Duration:    event.Duration,
		Location:    event.Location,
	}).trimmed()
	if err := validateInput(input); err != nil {
		return nil, err
	}
	datetime := event.Datetime
	if patch.Datetime != nil {
		if datetime, err = parseDatetime("datetime", *patch.Datetime); err != nil {
			return nil, err
		}
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.EventPost{Id: id}).Updates(map[string]interface{}{
			"name":        input.Name,
			"description": input.Description,
			"datetime":    datetime,
			"duration":    input.Duration,
			"location":    input.Location,
		}).Error; err != nil {
			return err
		}
		return linkActivities(tx, id, input.Activities)
	})
	if err != nil {
		return nil, errors.Wrapf(relation.TranslateError(err), "cannot update event %d", id)
	}

	Log.WithField("event_id", id).WithField("user_id", actor.Id).Info("event updated")
	return r.GetEvent(ctx, actor, id)
}

// deleteEventsWhere removes the events selected by query together with their
// comments, likes on those comments, participations and activity links.
func deleteEventsWhere(tx *gorm.DB, query string, args ...interface{}) error {
	events := tx.Model(&model.EventPost{}).Select("id").Where(query, args...)
	comments := tx.Model(&model.Comment{}).Select("id").Where("event_post_id IN (?)", events)

	if err := tx.Where("comment_id IN (?)", comments).Delete(&model.Like{}).Error; err != nil {
		return err
	}
	if err := tx.Where("event_post_id IN (?)", events).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("event_post_id IN (?)", events).Delete(&model.Participation{}).Error; err != nil {
		return err
	}
	if err := tx.Where("event_post_id IN (?)", events).Delete(&model.ActivityForEventPost{}).Error; err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&model.EventPost{}).Error
}

// DeleteEvent removes the event with all of its comments, likes on them and
// participations.
func (r *Resolver) DeleteEvent(ctx context.Context, actor *model.User, id uint) error {
	event, err := findByID[model.EventPost](r.DB.WithContext(ctx), "event", id)
	if err != nil {
		return err
	}
	if err := middlewares.Authorize(middlewares.ActionDestroy, http.MethodDelete, actor, event.AuthorID); err != nil {
		return err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteEventsWhere(tx, "id = ?", id)
	})
	if err != nil {
		return errors.Wrapf(relation.TranslateError(err), "cannot delete event %d", id)
	}
	Log.WithField("event_id", id).WithField("user_id", actor.Id).Info("event deleted")
	return nil
}
