package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// Sink delivers one notification to its recipient.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// LoggingSink writes notifications to the process log.
type LoggingSink struct{}

func (LoggingSink) Deliver(ctx context.Context, n Notification) error {
	utils.Logger.WithFields(logrus.Fields{
		"recipient": n.RecipientID,
		"kind":      n.Kind,
		"payload":   n.Payload,
	}).Info("Notification delivered")
	return nil
}

// CompositeSink delivers to every registered sink and joins their errors.
type CompositeSink struct {
	sinks []Sink
}

// NewCompositeSink returns the concrete type so AddSink can be called directly.
func NewCompositeSink(sinks ...Sink) *CompositeSink {
	return &CompositeSink{sinks: sinks}
}

// AddSink ignores nil sinks.
func (cs *CompositeSink) AddSink(sink Sink) {
	if sink != nil {
		cs.sinks = append(cs.sinks, sink)
	}
}

func (cs *CompositeSink) Deliver(ctx context.Context, n Notification) error {
	if len(cs.sinks) == 0 {
		return fmt.Errorf("no sinks configured in CompositeSink")
	}

	var allErrors []string
	for _, sink := range cs.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			allErrors = append(allErrors, err.Error())
		}
	}

	if len(allErrors) > 0 {
		return fmt.Errorf("composite delivery failed: [ %s ]", strings.Join(allErrors, "; "))
	}
	return nil
}
