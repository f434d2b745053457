package resolver

import (
	"context"
	"net/http"
	"strings"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/relation"
	"github.com/Luismorlan/eventmux/server/middlewares"
	. "github.com/Luismorlan/eventmux/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (r *Resolver) loadUsers(db *gorm.DB) *gorm.DB {
	return db.Preload("FavoriteActivities", func(db *gorm.DB) *gorm.DB { return db.Order("name asc") })
}

func (r *Resolver) presentUser(ctx context.Context, actor *model.User, id uint) (*UserOutput, error) {
	var user model.User
	if err := r.loadUsers(r.DB.WithContext(ctx)).First(&user, id).Error; err != nil {
		return nil, errors.Wrapf(relation.TranslateError(err), "user %d", id)
	}
	res, err := r.presentUsers(ctx, actor, []*model.User{&user})
	if err != nil {
		return nil, err
	}
	return &res[0], nil
}

// checkUserUnique reports which unique field of input is already taken by a
// user other than exceptID. The unique indexes remain the source of truth,
// this only names the field.
func checkUserUnique(db *gorm.DB, input UserInput, exceptID uint) error {
	for _, f := range []struct {
		column string
		value  string
	}{
		{"username", input.Username},
		{"email", input.Email},
		{"phone_number", input.PhoneNumber},
	} {
		var count int64
		if err := db.Model(&model.User{}).
			Where(f.column+" = ? AND id <> ?", f.value, exceptID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.Wrapf(model.ErrAlreadyExists, "user with this %s already exists", f.column)
		}
	}
	return nil
}

func (r *Resolver) validateUser(input UserInput) error {
	if err := validateInput(input); err != nil {
		return err
	}
	return validateBirthYear(input.BirthYear, r.now())
}

// CreateUser registers the owner of a verified identity. Credentials are
// owned by the identity provider, the username is the identity subject: it
// defaults to subject and may not differ from it.
func (r *Resolver) CreateUser(ctx context.Context, subject string, input UserInput) (*UserOutput, error) {
	if subject == "" {
		return nil, errors.Wrap(model.ErrUnauthenticated, "registration requires a verified identity")
	}
	input = input.trimmed()
	if input.Username == "" {
		input.Username = subject
	}
	if input.Username != subject {
		return nil, model.NewValidationError("username", "username must match the authenticated identity %q", subject)
	}
	if err := r.validateUser(input); err != nil {
		return nil, err
	}
	user := model.User{
		Username:    input.Username,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		BirthYear:   input.BirthYear,
		Bio:         input.Bio,
		Photo:       input.Photo,
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUserUnique(tx, input, 0); err != nil {
			return err
		}
		return tx.Omit("FavoriteActivities").Create(&user).Error
	})
	if err != nil {
		return nil, errors.Wrap(relation.TranslateError(err), "cannot create user")
	}

	Log.WithField("user_id", user.Id).Info("user created")
	return r.presentUser(ctx, nil, user.Id)
}

func (r *Resolver) GetUser(ctx context.Context, actor *model.User, id uint) (*UserOutput, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return r.presentUser(ctx, actor, id)
}

// Me presents the requesting user.
func (r *Resolver) Me(ctx context.Context, actor *model.User) (*UserOutput, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return r.presentUser(ctx, actor, actor.Id)
}

// ListUsers returns one page of users ordered by username.
func (r *Resolver) ListUsers(ctx context.Context, actor *model.User, page int) (*Page[UserOutput], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, err
	}

	db := r.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "cannot count users")
	}
	var users []*model.User
	if err := r.loadUsers(db).Scopes(r.paginate(page)).Order("username asc").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "cannot list users")
	}
	results, err := r.presentUsers(ctx, actor, users)
	if err != nil {
		return nil, err
	}
	return &Page[UserOutput]{Count: count, Page: page, PageSize: r.pageSize(), Results: results}, nil
}

// ListSubscriptions returns the authors the actor follows, ordered by
// username.
func (r *Resolver) ListSubscriptions(ctx context.Context, actor *model.User) ([]UserOutput, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var authors []*model.User
	if err := r.loadUsers(r.DB.WithContext(ctx)).
		Where("id IN (?)", r.Relations.Subscribe.TargetsOf(actor.Id)).
		Order("username asc").
		Find(&authors).Error; err != nil {
		return nil, errors.Wrap(err, "cannot list subscriptions")
	}
	return r.presentUsers(ctx, actor, authors)
}

// ListFavoriteActivities returns the actor's favorite activities ordered by
// name.
func (r *Resolver) ListFavoriteActivities(ctx context.Context, actor *model.User) ([]ActivityOutput, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var activities []*model.Activity
	if err := r.DB.WithContext(ctx).
		Where("id IN (?)", r.Relations.Favorite.TargetsOf(actor.Id)).
		Order("name asc").
		Find(&activities).Error; err != nil {
		return nil, errors.Wrap(err, "cannot list favorite activities")
	}
	return r.presentActivities(ctx, actor, activities)
}

// UpdateUser applies patch to the profile of user id. Only the user itself or
// an admin may do it, the admin flag cannot be changed this way.
func (r *Resolver) UpdateUser(ctx context.Context, actor *model.User, id uint, patch UserPatch) (*UserOutput, error) {
	user, err := findByID[model.User](r.DB.WithContext(ctx), "user", id)
	if err != nil {
		return nil, err
	}
	if err := middlewares.Authorize(middlewares.ActionUpdate, http.MethodPatch, actor, user.Id); err != nil {
		return nil, err
	}

	if patch.Username != nil && strings.TrimSpace(*patch.Username) != user.Username {
		return nil, model.NewValidationError("username", "username is bound to the identity and cannot be changed")
	}
	input := patch.apply(UserInput{
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		BirthYear:   user.BirthYear,
		Bio:         user.Bio,
		Photo:       user.Photo,
	}).trimmed()
	if err := r.validateUser(input); err != nil {
		return nil, err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUserUnique(tx, input, id); err != nil {
			return err
		}
		return tx.Model(&model.User{Id: id}).Updates(map[string]interface{}{
			"username":     input.Username,
			"email":        input.Email,
			"first_name":   input.FirstName,
			"last_name":    input.LastName,
			"phone_number": input.PhoneNumber,
			"birth_year":   input.BirthYear,
			"bio":          input.Bio,
			"photo":        input.Photo,
		}).Error
	})
	if err != nil {
		return nil, errors.Wrapf(relation.TranslateError(err), "cannot update user %d", id)
	}

	Log.WithField("user_id", id).WithField("actor_id", actor.Id).Info("user updated")
	return r.presentUser(ctx, actor, id)
}

// DeleteUser removes the user and everything it owns: its events with their
// dependents, its comments, likes, participations, subscriptions in both
// directions and favorites.
func (r *Resolver) DeleteUser(ctx context.Context, actor *model.User, id uint) error {
	user, err := findByID[model.User](r.DB.WithContext(ctx), "user", id)
	if err != nil {
		return err
	}
	if err := middlewares.Authorize(middlewares.ActionDestroy, http.MethodDelete, actor, user.Id); err != nil {
		return err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteEventsWhere(tx, "author_id = ?", id); err != nil {
			return err
		}
		comments := tx.Model(&model.Comment{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("user_id = ? OR comment_id IN (?)", id, comments).Delete(&model.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Participation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&model.Subscribe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.FavoriteActivity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, id).Error
	})
	if err != nil {
		return errors.Wrapf(err, "cannot delete user %d", id)
	}
	Log.WithField("user_id", id).WithField("actor_id", actor.Id).Info("user deleted")
	return nil
}

// GrantAdmins sets the admin flag of the users named in usernames and returns
// how many were found.
func (r *Resolver) GrantAdmins(ctx context.Context, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("username IN ?", usernames).
		Update("is_admin", true)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "cannot grant admins")
	}
	return res.RowsAffected, nil
}
