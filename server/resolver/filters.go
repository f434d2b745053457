package resolver

import (
	"time"

	"github.com/Luismorlan/eventmux/model"
	"gorm.io/gorm"
)

type scope = func(db *gorm.DB) *gorm.DB

func noop(db *gorm.DB) *gorm.DB {
	return db
}

func pastEvents(now time.Time) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("event_posts.datetime <= ?", now)
	}
}

func actualEvents(now time.Time) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("event_posts.datetime > ?", now)
	}
}

// participatedBy keeps the events actor participates in.
func (r *Resolver) participatedBy(actor *model.User) scope {
	if actor == nil {
		return noop
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("event_posts.id IN (?)", r.Relations.Participation.TargetsOf(actor.Id))
	}
}

// inActivitiesOf keeps the events having at least one activity among the
// actor's favorites.
func (r *Resolver) inActivitiesOf(actor *model.User) scope {
	if actor == nil {
		return noop
	}
	return func(db *gorm.DB) *gorm.DB {
		events := r.DB.Model(&model.ActivityForEventPost{}).
			Select("event_post_id").
			Where("activity_id IN (?)", r.Relations.Favorite.TargetsOf(actor.Id))
		return db.Where("event_posts.id IN (?)", events)
	}
}

// withActivityNames keeps the events having at least one activity named in
// names.
func (r *Resolver) withActivityNames(names []string) scope {
	return func(db *gorm.DB) *gorm.DB {
		events := r.DB.Model(&model.ActivityForEventPost{}).
			Select("activity_for_event_posts.event_post_id").
			Joins("JOIN activities ON activities.id = activity_for_event_posts.activity_id").
			Where("activities.name IN ?", names)
		return db.Where("event_posts.id IN (?)", events)
	}
}

// eventScopes turns filter into query scopes. An anonymous actor has no
// participations nor favorites, user scoped predicates then fall back to
// their plain temporal part.
func (r *Resolver) eventScopes(actor *model.User, filter EventFilter, now time.Time) []scope {
	var scopes []scope
	if filter.IsPast {
		scopes = append(scopes, pastEvents(now))
	}
	if filter.IsActual {
		scopes = append(scopes, actualEvents(now))
	}
	if filter.IsUserPast {
		scopes = append(scopes, pastEvents(now), r.participatedBy(actor))
	}
	if filter.IsUserActual {
		scopes = append(scopes, actualEvents(now), r.participatedBy(actor))
	}
	if filter.InMyParticipationList {
		scopes = append(scopes, r.participatedBy(actor))
	}
	if filter.InMyActivities {
		scopes = append(scopes, r.inActivitiesOf(actor))
	}
	if len(filter.Activities) > 0 {
		scopes = append(scopes, r.withActivityNames(filter.Activities))
	}
	return scopes
}
