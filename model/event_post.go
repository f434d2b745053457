package model

import "time"

/*

EventPost is an event a user publishes for others to join

Id: primary key, auto-increment
CreatedAt: time when entity is created
UpdatedAt: time when entity is last updated
Name: event title, at most 124 characters
Description: free text
Datetime: when the event starts
Duration: length in minutes, always positive
Location: free text address, at most 256 characters
AuthorID:
Author: user who published the event, "belongs-to" relation

Activities: activities the event is about, "many-to-many" relation via ActivityForEventPost
Participants: users taking part, "many-to-many" relation via Participation

Events are presented newest Datetime first.
*/
type EventPost struct {
	Id           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Name         string      `gorm:"size:124;not null"`
	Description  string      `gorm:"not null"`
	Datetime     time.Time   `gorm:"index;not null"`
	Duration     int         `gorm:"not null"`
	Location     string      `gorm:"size:256;not null"`
	AuthorID     uint        `gorm:"index;not null"`
	Author       User        `gorm:"constraint:OnDelete:CASCADE;"`
	Activities   []*Activity `gorm:"many2many:activity_for_event_posts;constraint:OnDelete:CASCADE;"`
	Participants []*User     `gorm:"many2many:participations;constraint:OnDelete:CASCADE;"`
}

// ActivityForEventPost links an event to one of its activities.
type ActivityForEventPost struct {
	EventPostID uint       `gorm:"primaryKey"`
	ActivityID  uint       `gorm:"primaryKey;index"`
	EventPost   *EventPost `gorm:"constraint:OnDelete:CASCADE;"`
	Activity    *Activity  `gorm:"constraint:OnDelete:CASCADE;"`
}

// Participation records that a user takes part in an event. There is at most
// one row per (user, event).
type Participation struct {
	UserID      uint       `gorm:"primaryKey"`
	EventPostID uint       `gorm:"primaryKey;index"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE;"`
	EventPost   *EventPost `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time
}
