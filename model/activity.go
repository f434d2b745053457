package model

import "time"

// Activity is a named kind of sport or pastime an event can be about, e.g.
// "Running". Activities are presented ordered by name.
type Activity struct {
	Id   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:124;uniqueIndex;not null"`
}

// FavoriteActivity marks an activity as one of the user's favorites.
type FavoriteActivity struct {
	UserID     uint      `gorm:"primaryKey"`
	ActivityID uint      `gorm:"primaryKey;index"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;"`
	Activity   *Activity `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt  time.Time
}
