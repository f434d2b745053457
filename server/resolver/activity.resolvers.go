package resolver

import (
	"context"
	"net/http"
	"strings"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/server/middlewares"
	. "github.com/Luismorlan/eventmux/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListActivities returns the catalog ordered by name, optionally restricted to
// names starting with namePrefix.
func (r *Resolver) ListActivities(ctx context.Context, actor *model.User, namePrefix string) ([]ActivityOutput, error) {
	if err := middlewares.Authorize(middlewares.ActionList, http.MethodGet, actor, 0); err != nil {
		return nil, err
	}
	db := r.DB.WithContext(ctx)
	if namePrefix != "" {
		db = db.Where(`name LIKE ? ESCAPE '\'`, escapeLike(namePrefix)+"%")
	}
	var activities []*model.Activity
	if err := db.Order("name asc").Find(&activities).Error; err != nil {
		return nil, errors.Wrap(err, "cannot list activities")
	}
	return r.presentActivities(ctx, actor, activities)
}

func (r *Resolver) GetActivity(ctx context.Context, actor *model.User, id uint) (*ActivityOutput, error) {
	if err := middlewares.Authorize(middlewares.ActionRetrieve, http.MethodGet, actor, 0); err != nil {
		return nil, err
	}
	activity, err := findByID[model.Activity](r.DB.WithContext(ctx), "activity", id)
	if err != nil {
		return nil, err
	}
	res, err := r.presentActivities(ctx, actor, []*model.Activity{activity})
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

// EnsureActivities creates the activities of names that do not exist yet and
// returns all of them ordered by name.
func (r *Resolver) EnsureActivities(ctx context.Context, names []string) ([]model.Activity, error) {
	var cleaned []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len([]rune(name)) > 124 {
			return nil, model.NewValidationError("name", "ensure this field has no more than 124 characters")
		}
		cleaned = append(cleaned, name)
	}

	var activities []model.Activity
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range cleaned {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&model.Activity{Name: name}).Error; err != nil {
				return err
			}
		}
		return tx.Where("name IN ?", cleaned).Order("name asc").Find(&activities).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot ensure activities")
	}
	Log.WithField("count", len(activities)).Info("activities ensured")
	return activities, nil
}
