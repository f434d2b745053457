package reporter

import (
	"context"

	"github.com/Luismorlan/eventmux/relation"
	Logger "github.com/Luismorlan/eventmux/utils/log"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	DDOG_RELATION_TOGGLE_COUNTER = "eventmux.relation.toggle"
)

// Counter is the part of the statsd client the reporter needs, satisfied by
// *statsd.Client.
type Counter interface {
	Incr(name string, tags []string, rate float64) error
}

type ReporterConfig struct {
	Name string
}

// Reporter listens to relation toggles on the event bus and counts them in
// Datadog, tagged by relation and action.
type Reporter struct {
	Config ReporterConfig

	Statsd Counter

	EventBus message.Subscriber
}

func NewReporter(config ReporterConfig, statsd Counter, e message.Subscriber) *Reporter {
	return &Reporter{
		Config:   config,
		Statsd:   statsd,
		EventBus: e,
	}
}

// ReportToggle sends one toggle to datadog.
func ReportToggle(e relation.ToggleEvent, statsd Counter) {
	err := statsd.Incr(DDOG_RELATION_TOGGLE_COUNTER,
		[]string{
			"relation:" + e.Relation,
			"action:" + string(e.Action),
		}, 1)
	if err != nil {
		Logger.Log.WithError(err).Infoln("cannot report relation toggle")
	}
}

// ProcessToggleEvents consumes the bus until ctx is done or the bus is closed.
func (r *Reporter) ProcessToggleEvents(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := r.EventBus.Subscribe(ctx, relation.TopicRelationToggled)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		e, err := relation.DecodeToggleEvent(msg)
		if err != nil {
			Logger.Log.WithError(err).WithField("message_id", msg.UUID).Warn("dropping malformed toggle event")
			continue
		}
		ReportToggle(e, r.Statsd)
	}

	return nil
}

func (r *Reporter) RunModule(ctx context.Context) error {
	return r.ProcessToggleEvents(ctx)
}

func (r *Reporter) Name() string {
	return r.Config.Name
}
