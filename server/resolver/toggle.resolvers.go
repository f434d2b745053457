package resolver

import (
	"context"
	"net/http"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/server/middlewares"
)

// Toggle operations add or remove one fact relation of the actor. Add returns
// the refreshed presentation of the target. The target is looked up first so
// that an unknown target is reported as model.ErrNotFound for both directions.

func authorizeToggle(actor *model.User, method string) error {
	return middlewares.Authorize(middlewares.ActionToggle, method, actor, 0)
}

func (r *Resolver) Participate(ctx context.Context, actor *model.User, eventID uint) (*EventOutput, error) {
	if err := authorizeToggle(actor, http.MethodPost); err != nil {
		return nil, err
	}
	if _, err := findByID[model.EventPost](r.DB.WithContext(ctx), "event", eventID); err != nil {
		return nil, err
	}
	if _, err := r.Relations.Participation.Add(ctx, actor.Id, eventID); err != nil {
		return nil, err
	}
	return r.GetEvent(ctx, actor, eventID)
}

func (r *Resolver) Unparticipate(ctx context.Context, actor *model.User, eventID uint) error {
	if err := authorizeToggle(actor, http.MethodDelete); err != nil {
		return err
	}
	if _, err := findByID[model.EventPost](r.DB.WithContext(ctx), "event", eventID); err != nil {
		return err
	}
	return r.Relations.Participation.Remove(ctx, actor.Id, eventID)
}

func (r *Resolver) Like(ctx context.Context, actor *model.User, eventID, commentID uint) (*CommentOutput, error) {
	if err := authorizeToggle(actor, http.MethodPost); err != nil {
		return nil, err
	}
	if _, err := r.findComment(ctx, eventID, commentID); err != nil {
		return nil, err
	}
	if _, err := r.Relations.Like.Add(ctx, actor.Id, commentID); err != nil {
		return nil, err
	}
	return r.GetComment(ctx, actor, eventID, commentID)
}

func (r *Resolver) Unlike(ctx context.Context, actor *model.User, eventID, commentID uint) error {
	if err := authorizeToggle(actor, http.MethodDelete); err != nil {
		return err
	}
	if _, err := r.findComment(ctx, eventID, commentID); err != nil {
		return err
	}
	return r.Relations.Like.Remove(ctx, actor.Id, commentID)
}

// Subscribe makes the actor follow authorID. Following oneself fails with
// model.ErrInvalidSelfReference.
func (r *Resolver) Subscribe(ctx context.Context, actor *model.User, authorID uint) (*UserOutput, error) {
	if err := authorizeToggle(actor, http.MethodPost); err != nil {
		return nil, err
	}
	if _, err := findByID[model.User](r.DB.WithContext(ctx), "user", authorID); err != nil {
		return nil, err
	}
	if _, err := r.Relations.Subscribe.Add(ctx, actor.Id, authorID); err != nil {
		return nil, err
	}
	return r.presentUser(ctx, actor, authorID)
}

func (r *Resolver) Unsubscribe(ctx context.Context, actor *model.User, authorID uint) error {
	if err := authorizeToggle(actor, http.MethodDelete); err != nil {
		return err
	}
	if _, err := findByID[model.User](r.DB.WithContext(ctx), "user", authorID); err != nil {
		return err
	}
	return r.Relations.Subscribe.Remove(ctx, actor.Id, authorID)
}

func (r *Resolver) Favorite(ctx context.Context, actor *model.User, activityID uint) (*ActivityOutput, error) {
	if err := authorizeToggle(actor, http.MethodPost); err != nil {
		return nil, err
	}
	if _, err := findByID[model.Activity](r.DB.WithContext(ctx), "activity", activityID); err != nil {
		return nil, err
	}
	if _, err := r.Relations.Favorite.Add(ctx, actor.Id, activityID); err != nil {
		return nil, err
	}
	return r.GetActivity(ctx, actor, activityID)
}

func (r *Resolver) Unfavorite(ctx context.Context, actor *model.User, activityID uint) error {
	if err := authorizeToggle(actor, http.MethodDelete); err != nil {
		return err
	}
	if _, err := findByID[model.Activity](r.DB.WithContext(ctx), "activity", activityID); err != nil {
		return err
	}
	return r.Relations.Favorite.Remove(ctx, actor.Id, activityID)
}
