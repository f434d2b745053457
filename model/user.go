package model

import "time"

/*

User is a registered member who organizes and attends events

Id: primary key, auto-increment
CreatedAt: time when entity is created
Username: unique login, also the identity subject issued by the auth provider
Email: unique contact email
PhoneNumber: unique phone number in E.164 form
FirstName, LastName: display name
BirthYear: optional, used to present the user's age
Bio: optional free text
Photo: optional opaque URL of the profile photo
IsAdmin: admins may edit and delete any event, comment or user

FavoriteActivities: activities the user marked, "many-to-many" relation via FavoriteActivity

*/
type User struct {
	Id                 uint `gorm:"primaryKey"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Username           string `gorm:"size:150;uniqueIndex;not null"`
	Email              string `gorm:"size:254;uniqueIndex;not null"`
	PhoneNumber        string `gorm:"size:32;uniqueIndex;not null"`
	FirstName          string `gorm:"size:150"`
	LastName           string `gorm:"size:150"`
	BirthYear          *int
	Bio                *string
	Photo              *string
	IsAdmin            bool        `gorm:"not null;default:false"`
	FavoriteActivities []*Activity `gorm:"many2many:favorite_activities;constraint:OnDelete:CASCADE;"`
}
