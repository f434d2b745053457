package relation

import (
	"github.com/Luismorlan/eventmux/model"
	"gorm.io/gorm"
)

var (
	ParticipationDef = Definition{Name: "participation", ActorColumn: "user_id", TargetColumn: "event_post_id"}
	LikeDef          = Definition{Name: "like", ActorColumn: "user_id", TargetColumn: "comment_id"}
	SubscribeDef     = Definition{Name: "subscribe", ActorColumn: "user_id", TargetColumn: "author_id", ForbidSelf: true}
	FavoriteDef      = Definition{Name: "favorite_activity", ActorColumn: "user_id", TargetColumn: "activity_id"}
)

// Relations bundles the four social toggles of the application.
type Relations struct {
	// user -> event
	Participation *Toggle[model.Participation]
	// user -> comment
	Like *Toggle[model.Like]
	// user -> author (user)
	Subscribe *Toggle[model.Subscribe]
	// user -> activity
	Favorite *Toggle[model.FavoriteActivity]
}

func NewRelations(db *gorm.DB, opts ...Option) *Relations {
	return &Relations{
		Participation: New(db, ParticipationDef, func(userID, eventID uint) model.Participation {
			return model.Participation{UserID: userID, EventPostID: eventID}
		}, opts...),
		Like: New(db, LikeDef, func(userID, commentID uint) model.Like {
			return model.Like{UserID: userID, CommentID: commentID}
		}, opts...),
		Subscribe: New(db, SubscribeDef, func(userID, authorID uint) model.Subscribe {
			return model.Subscribe{UserID: userID, AuthorID: authorID}
		}, opts...),
		Favorite: New(db, FavoriteDef, func(userID, activityID uint) model.FavoriteActivity {
			return model.FavoriteActivity{UserID: userID, ActivityID: activityID}
		}, opts...),
	}
}
