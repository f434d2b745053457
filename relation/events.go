package relation

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/Luismorlan/eventmux/utils/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	// TopicRelationToggled carries a ToggleEvent for every committed Add and
	// Remove.
	TopicRelationToggled = "relation_toggled"
)

type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

// ToggleEvent describes one committed change of a relation.
type ToggleEvent struct {
	Relation string    `json:"relation"`
	Action   Action    `json:"action"`
	ActorID  uint      `json:"actor_id"`
	TargetID uint      `json:"target_id"`
	At       time.Time `json:"at"`
}

func EncodeToggleEvent(e ToggleEvent) (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return message.NewMessage(uuid.New().String(), payload), nil
}

func DecodeToggleEvent(msg *message.Message) (ToggleEvent, error) {
	var e ToggleEvent
	err := json.Unmarshal(msg.Payload, &e)
	return e, err
}

// publish only logs failures, the change it reports is already committed.
func (t *Toggle[R]) publish(ctx context.Context, action Action, actorID, targetID uint) {
	if t.opts.publisher == nil {
		return
	}
	msg, err := EncodeToggleEvent(ToggleEvent{
		Relation: t.def.Name,
		Action:   action,
		ActorID:  actorID,
		TargetID: targetID,
		At:       t.opts.now().UTC(),
	})
	if err == nil {
		msg.SetContext(ctx)
		err = t.opts.publisher.Publish(TopicRelationToggled, msg)
	}
	if err != nil {
		Log.WithError(err).WithField("relation", t.def.Name).Warn("cannot publish toggle event")
	}
}
