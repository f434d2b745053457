package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/Luismorlan/eventmux/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// create user with username, do sanity checks and returns it. Email and phone
// number are derived from a counter so that they stay unique.
func TestCreateUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	var count int64
	require.Nil(t, db.Model(&model.User{}).Count(&count).Error)

	user := model.User{
		Username:    username,
		Email:       fmt.Sprintf("%s@example.com", username),
		PhoneNumber: fmt.Sprintf("+7999%07d", count+1),
		FirstName:   "Test",
		LastName:    "User",
	}
	require.Nil(t, db.Create(&user).Error)
	require.NotZero(t, user.Id)
	return &user
}

// create an admin user, do sanity checks and returns it
func TestCreateAdmin(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := TestCreateUser(t, db, username)
	require.Nil(t, db.Model(user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}

// create activity with name, do sanity checks and returns it
func TestCreateActivity(t *testing.T, db *gorm.DB, name string) *model.Activity {
	t.Helper()
	activity := model.Activity{Name: name}
	require.Nil(t, db.Create(&activity).Error)
	require.NotZero(t, activity.Id)
	return &activity
}

// create event with given author, start time and activities, bypassing
// validation, do sanity checks and returns it
func TestCreateEvent(t *testing.T, db *gorm.DB, author *model.User, name string, at time.Time, activities ...*model.Activity) *model.EventPost {
	t.Helper()
	event := model.EventPost{
		Name:        name,
		Description: "test event " + name,
		Datetime:    at.UTC(),
		Duration:    60,
		Location:    "Central park",
		AuthorID:    author.Id,
	}
	require.Nil(t, db.Omit("Author").Create(&event).Error)
	for _, activity := range activities {
		require.Nil(t, db.Create(&model.ActivityForEventPost{EventPostID: event.Id, ActivityID: activity.Id}).Error)
	}
	return &event
}

// create comment, do sanity checks and returns it
func TestCreateComment(t *testing.T, db *gorm.DB, author *model.User, event *model.EventPost, text string) *model.Comment {
	t.Helper()
	comment := model.Comment{EventPostID: event.Id, AuthorID: author.Id, Text: text}
	require.Nil(t, db.Omit("Author", "EventPost").Create(&comment).Error)
	return &comment
}
