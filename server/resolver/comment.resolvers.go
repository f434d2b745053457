package resolver

import (
	"context"
	"net/http"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/relation"
	"github.com/Luismorlan/eventmux/server/middlewares"
	. "github.com/Luismorlan/eventmux/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// findComment loads a comment of eventID, a comment of another event is
// reported as not found.
func (r *Resolver) findComment(ctx context.Context, eventID, commentID uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Where("event_post_id = ?", eventID).
		First(&comment, commentID).Error
	if err != nil {
		return nil, errors.Wrapf(relation.TranslateError(err), "comment %d of event %d", commentID, eventID)
	}
	return &comment, nil
}

func (r *Resolver) presentComment(ctx context.Context, actor *model.User, comment *model.Comment) (*CommentOutput, error) {
	res, err := r.presentComments(ctx, actor, []*model.Comment{comment})
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

// ListComments returns one page of the comments of an event, newest first.
func (r *Resolver) ListComments(ctx context.Context, actor *model.User, eventID uint, page int) (*Page[CommentOutput], error) {
	if err := middlewares.Authorize(middlewares.ActionList, http.MethodGet, actor, 0); err != nil {
		return nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, err
	}
	if _, err := findByID[model.EventPost](r.DB.WithContext(ctx), "event", eventID); err != nil {
		return nil, err
	}

	db := r.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&model.Comment{}).Where("event_post_id = ?", eventID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "cannot count comments")
	}
	var comments []*model.Comment
	if err := db.Preload("Author").
		Where("event_post_id = ?", eventID).
		Scopes(r.paginate(page)).
		Order("id desc").
		Find(&comments).Error; err != nil {
		return nil, errors.Wrap(err, "cannot list comments")
	}

	results, err := r.presentComments(ctx, actor, comments)
	if err != nil {
		return nil, err
	}
	return &Page[CommentOutput]{Count: count, Page: page, PageSize: r.pageSize(), Results: results}, nil
}

func (r *Resolver) GetComment(ctx context.Context, actor *model.User, eventID, commentID uint) (*CommentOutput, error) {
	if err := middlewares.Authorize(middlewares.ActionRetrieve, http.MethodGet, actor, 0); err != nil {
		return nil, err
	}
	comment, err := r.findComment(ctx, eventID, commentID)
	if err != nil {
		return nil, err
	}
	return r.presentComment(ctx, actor, comment)
}

func (r *Resolver) CreateComment(ctx context.Context, actor *model.User, eventID uint, input CommentInput) (*CommentOutput, error) {
	if err := middlewares.Authorize(middlewares.ActionCreate, http.MethodPost, actor, 0); err != nil {
		return nil, err
	}
	input = input.trimmed()
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := findByID[model.EventPost](r.DB.WithContext(ctx), "event", eventID); err != nil {
		return nil, err
	}

	comment := model.Comment{EventPostID: eventID, AuthorID: actor.Id, Text: input.Text}
	if err := r.DB.WithContext(ctx).Omit("EventPost", "Author", "Likers").Create(&comment).Error; err != nil {
		return nil, errors.Wrap(relation.TranslateError(err), "cannot create comment")
	}

	Log.WithField("comment_id", comment.Id).WithField("user_id", actor.Id).Info("comment created")
	return r.GetComment(ctx, actor, eventID, comment.Id)
}

// UpdateComment only changes the text, author and event are immutable.
func (r *Resolver) UpdateComment(ctx context.Context, actor *model.User, eventID, commentID uint, input CommentInput) (*CommentOutput, error) {
	comment, err := r.findComment(ctx, eventID, commentID)
	if err != nil {
		return nil, err
	}
	if err := middlewares.Authorize(middlewares.ActionUpdate, http.MethodPatch, actor, comment.AuthorID); err != nil {
		return nil, err
	}
	input = input.trimmed()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Model(&model.Comment{Id: commentID}).Update("text", input.Text).Error; err != nil {
		return nil, errors.Wrapf(err, "cannot update comment %d", commentID)
	}
	Log.WithField("comment_id", commentID).WithField("user_id", actor.Id).Info("comment updated")
	return r.GetComment(ctx, actor, eventID, commentID)
}

// DeleteComment removes the comment and its likes.
func (r *Resolver) DeleteComment(ctx context.Context, actor *model.User, eventID, commentID uint) error {
	comment, err := r.findComment(ctx, eventID, commentID)
	if err != nil {
		return err
	}
	if err := middlewares.Authorize(middlewares.ActionDestroy, http.MethodDelete, actor, comment.AuthorID); err != nil {
		return err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", commentID).Delete(&model.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Comment{}, commentID).Error
	})
	if err != nil {
		return errors.Wrapf(err, "cannot delete comment %d", commentID)
	}
	Log.WithField("comment_id", commentID).WithField("user_id", actor.Id).Info("comment deleted")
	return nil
}
