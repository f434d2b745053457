package model

import "time"

/*

Comment is a piece of text a user leaves under an event

Id: primary key, auto-increment; comments are presented newest (highest id) first
CreatedAt: publication time
EventPostID:
EventPost: the commented event, "belongs-to" relation, immutable after creation
AuthorID:
Author: user who wrote the comment, "belongs-to" relation, immutable after creation
Text: 1 to 2000 characters

Likers: users who liked the comment, "many-to-many" relation via Like

*/
type Comment struct {
	Id          uint      `gorm:"primaryKey"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	EventPostID uint      `gorm:"index;not null"`
	EventPost   EventPost `gorm:"constraint:OnDelete:CASCADE;"`
	AuthorID    uint      `gorm:"index;not null"`
	Author      User      `gorm:"constraint:OnDelete:CASCADE;"`
	Text        string    `gorm:"not null"`
	Likers      []*User   `gorm:"many2many:likes;constraint:OnDelete:CASCADE;"`
}

// Like records that a user liked a comment. There is at most one row per
// (user, comment).
type Like struct {
	UserID    uint     `gorm:"primaryKey"`
	CommentID uint     `gorm:"primaryKey;index"`
	User      *User    `gorm:"constraint:OnDelete:CASCADE;"`
	Comment   *Comment `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}
