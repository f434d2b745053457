package model

import "time"

/*

Subscribe is a "follow" relation between two users

UserID: the follower
AuthorID: the followed user, never equal to UserID
CreatedAt: time when relation is created

There is at most one row per (user, author). The schema cannot forbid
UserID == AuthorID, the toggle engine rejects it before touching the store.

*/
type Subscribe struct {
	UserID    uint  `gorm:"primaryKey"`
	AuthorID  uint  `gorm:"primaryKey;index"`
	User      *User `gorm:"constraint:OnDelete:CASCADE;"`
	Author    *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}
