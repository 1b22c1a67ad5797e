package infrastructure

import (
	"strings"

	"projector/events"
)

// SubjectPrefix is prepended to every analysis event subject
const SubjectPrefix = "projector"

// MapEventToSubject converts an event type to its NATS subject
func MapEventToSubject(eventType events.EventType) string {
	return SubjectPrefix + "." + string(eventType)
}

// MapSubjectToEventType converts a NATS subject back to an event type
func MapSubjectToEventType(subject string) (events.EventType, bool) {
	name, ok := strings.CutPrefix(subject, SubjectPrefix+".")
	if !ok {
		return "", false
	}
	for _, eventType := range events.AllEventTypes {
		if string(eventType) == name {
			return eventType, true
		}
	}
	return "", false
}

// AllSubjects returns all subjects the projector publishes to
func AllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, eventType := range events.AllEventTypes {
		subjects = append(subjects, MapEventToSubject(eventType))
	}
	return subjects
}
