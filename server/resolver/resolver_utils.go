package resolver

import (
	"strings"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/relation"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// findByID loads one row of T by primary key with the given preloads,
// missing rows are reported as model.ErrNotFound.
func findByID[T any](db *gorm.DB, kind string, id uint, preloads ...string) (*T, error) {
	var row T
	for _, p := range preloads {
		db = db.Preload(p)
	}
	if err := db.First(&row, id).Error; err != nil {
		return nil, errors.Wrapf(relation.TranslateError(err), "%s %d", kind, id)
	}
	return &row, nil
}

// requireActor rejects anonymous requests.
func requireActor(actor *model.User) error {
	if actor == nil {
		return errors.WithStack(model.ErrUnauthenticated)
	}
	return nil
}

func (r *Resolver) pageSize() int {
	return r.Config.PAGE_SIZE
}

// paginate selects page (1-based) of r.pageSize() rows.
func (r *Resolver) paginate(page int) func(db *gorm.DB) *gorm.DB {
	size := r.pageSize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * size).Limit(size)
	}
}

func checkPage(page int) error {
	if page < 1 {
		return model.NewValidationError("page", "invalid page %d", page)
	}
	return nil
}

// escapeLike quotes the LIKE wildcards of s, to be used with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
