package resolver

import (
	"time"

	"github.com/Luismorlan/eventmux/app_config"
	"github.com/Luismorlan/eventmux/relation"
	"gorm.io/gorm"
)

// It serves as dependency injection for the api, add any dependencies the
// operations require here.
//
// Every operation receives the requesting actor as a *model.User, nil stands
// for an anonymous request.
type Resolver struct {
	DB        *gorm.DB
	Relations *relation.Relations
	Config    app_config.AppConfig
	// Now is the clock used by temporal filters and age computation.
	Now func() time.Time
}

func NewResolver(db *gorm.DB, relations *relation.Relations, config app_config.AppConfig) *Resolver {
	return &Resolver{
		DB:        db,
		Relations: relations,
		Config:    config,
		Now:       time.Now,
	}
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}
