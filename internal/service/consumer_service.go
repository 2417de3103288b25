package service

import (
	"context"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService writes every pipeline event from the in-process bus to a
// dedicated event log.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	eventLog   logger.ILogger
	log        logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	eventLog logger.ILogger,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		eventLog:   eventLog,
		log:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Undecodable events are acked; redelivery cannot fix them.
	defer msg.Ack()

	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.log.Warn("CONSUMER", "Dropping undecodable event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	details := make(map[string]interface{}, len(event.Data)+2)
	for k, v := range event.Data {
		details[k] = v
	}
	details["event_type"] = event.Type
	details["occurred_at"] = event.OccurredAt

	switch event.Type {
	case events.TypeStageError:
		cs.eventLog.Error("EVENT", "Stage error", details)
	default:
		cs.eventLog.Info("EVENT", "Stage interaction", details)
	}
}
