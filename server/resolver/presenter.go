package resolver

import (
	"context"
	"time"

	"github.com/Luismorlan/eventmux/model"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Output types are what clients see. Fields computed for the actor, such as
// is_participate or is_liked, are false for anonymous requests.

type ActivityOutput struct {
	Id         uint   `json:"id"`
	Name       string `json:"name"`
	IsFavorite bool   `json:"is_favorite"`
}

// AuthorOutput is the short form of a user embedded in events and comments.
type AuthorOutput struct {
	Id        uint    `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Photo     *string `json:"photo"`
}

type UserOutput struct {
	Id                 uint             `json:"id"`
	Username           string           `json:"username"`
	Email              string           `json:"email"`
	FirstName          string           `json:"first_name"`
	LastName           string           `json:"last_name"`
	PhoneNumber        string           `json:"phone_number"`
	BirthYear          *int             `json:"birth_year"`
	Age                *int             `json:"age"`
	Bio                *string          `json:"bio"`
	Photo              *string          `json:"photo"`
	IsAdmin            bool             `json:"is_admin"`
	IsSubscribed       bool             `json:"is_subscribed"`
	SubscribersCount   int64            `json:"subscribers_count"`
	FavoriteActivities []ActivityOutput `json:"favorite_activities" copier:"-"`
}

type CommentOutput struct {
	Id          uint         `json:"id"`
	EventPostID uint         `json:"event"`
	Author      AuthorOutput `json:"author" copier:"-"`
	Text        string       `json:"text"`
	PubDate     string       `json:"pub_date"`
	IsLiked     bool         `json:"is_liked"`
	LikesCount  int64        `json:"likes_count"`
}

type EventOutput struct {
	Id          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// RFC 3339, UTC.
	Datetime          string           `json:"datetime" copier:"-"`
	Duration          int              `json:"duration"`
	Location          string           `json:"location"`
	Author            AuthorOutput     `json:"author" copier:"-"`
	Activities        []ActivityOutput `json:"activities" copier:"-"`
	Participants      []AuthorOutput   `json:"participants" copier:"-"`
	ParticipantsCount int              `json:"participants_count"`
	IsParticipate     bool             `json:"is_participate"`
	LatestComments    []CommentOutput  `json:"latest_comments"`
}

// Page is one slice of an ordered collection.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func presentAuthor(u *model.User) (AuthorOutput, error) {
	var out AuthorOutput
	err := copier.Copy(&out, u)
	return out, err
}

func presentAuthors(users []*model.User) ([]AuthorOutput, error) {
	res := make([]AuthorOutput, 0, len(users))
	for _, u := range users {
		out, err := presentAuthor(u)
		if err != nil {
			return nil, err
		}
		res = append(res, out)
	}
	return res, nil
}

func (r *Resolver) presentActivities(ctx context.Context, actor *model.User, activities []*model.Activity) ([]ActivityOutput, error) {
	ids := make([]uint, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.Id)
	}
	favorite := map[uint]bool{}
	if actor != nil {
		var err error
		if favorite, err = r.Relations.Favorite.ExistsAmong(ctx, actor.Id, ids); err != nil {
			return nil, err
		}
	}

	res := make([]ActivityOutput, 0, len(activities))
	for _, a := range activities {
		var out ActivityOutput
		if err := copier.Copy(&out, a); err != nil {
			return nil, err
		}
		out.IsFavorite = favorite[a.Id]
		res = append(res, out)
	}
	return res, nil
}

// presentUsers expects FavoriteActivities to be preloaded.
func (r *Resolver) presentUsers(ctx context.Context, actor *model.User, users []*model.User) ([]UserOutput, error) {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.Id)
	}
	subscribers, err := r.Relations.Subscribe.CountsFor(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "cannot count subscribers")
	}
	subscribed := map[uint]bool{}
	if actor != nil {
		if subscribed, err = r.Relations.Subscribe.ExistsAmong(ctx, actor.Id, ids); err != nil {
			return nil, errors.Wrap(err, "cannot look up subscriptions")
		}
	}

	now := r.now()
	res := make([]UserOutput, 0, len(users))
	for _, u := range users {
		var out UserOutput
		if err := copier.Copy(&out, u); err != nil {
			return nil, err
		}
		if u.BirthYear != nil {
			age := now.Year() - *u.BirthYear
			out.Age = &age
		}
		out.IsSubscribed = subscribed[u.Id]
		out.SubscribersCount = subscribers[u.Id]
		if out.FavoriteActivities, err = r.presentActivities(ctx, actor, u.FavoriteActivities); err != nil {
			return nil, err
		}
		res = append(res, out)
	}
	return res, nil
}

// presentComments expects Author to be preloaded.
func (r *Resolver) presentComments(ctx context.Context, actor *model.User, comments []*model.Comment) ([]CommentOutput, error) {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.Id)
	}
	likes, err := r.Relations.Like.CountsFor(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "cannot count likes")
	}
	liked := map[uint]bool{}
	if actor != nil {
		if liked, err = r.Relations.Like.ExistsAmong(ctx, actor.Id, ids); err != nil {
			return nil, errors.Wrap(err, "cannot look up likes")
		}
	}

	res := make([]CommentOutput, 0, len(comments))
	for _, c := range comments {
		var out CommentOutput
		if err := copier.Copy(&out, c); err != nil {
			return nil, err
		}
		if out.Author, err = presentAuthor(&c.Author); err != nil {
			return nil, err
		}
		out.PubDate = formatTime(c.CreatedAt)
		out.IsLiked = liked[c.Id]
		out.LikesCount = likes[c.Id]
		res = append(res, out)
	}
	return res, nil
}

// presentEvents expects Author, Activities and Participants to be preloaded.
// The newest comments of every event are loaded here.
func (r *Resolver) presentEvents(ctx context.Context, actor *model.User, events []*model.EventPost) ([]EventOutput, error) {
	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.Id)
	}
	participating := map[uint]bool{}
	if actor != nil {
		var err error
		if participating, err = r.Relations.Participation.ExistsAmong(ctx, actor.Id, ids); err != nil {
			return nil, errors.Wrap(err, "cannot look up participations")
		}
	}

	res := make([]EventOutput, 0, len(events))
	for _, e := range events {
		var (
			out EventOutput
			err error
		)
		if err = copier.Copy(&out, e); err != nil {
			return nil, err
		}
		out.Datetime = formatTime(e.Datetime)
		if out.Author, err = presentAuthor(&e.Author); err != nil {
			return nil, err
		}
		if out.Activities, err = r.presentActivities(ctx, actor, e.Activities); err != nil {
			return nil, err
		}
		if out.Participants, err = presentAuthors(e.Participants); err != nil {
			return nil, err
		}
		out.ParticipantsCount = len(e.Participants)
		out.IsParticipate = participating[e.Id]

		var latest []*model.Comment
		if err = r.DB.WithContext(ctx).
			Preload("Author").
			Where("event_post_id = ?", e.Id).
			Order("id desc").
			Limit(r.Config.COMMENT_PREVIEW_SIZE).
			Find(&latest).Error; err != nil {
			return nil, errors.Wrapf(err, "cannot load comments of event %d", e.Id)
		}
		if out.LatestComments, err = r.presentComments(ctx, actor, latest); err != nil {
			return nil, err
		}
		res = append(res, out)
	}
	return res, nil
}
