package services

import "log"

// Notifier is told about each newly assigned workflow step. Fire and forget:
// the engine never waits on or retries a notification, a lost one only costs
// a reviewer a reminder.
type Notifier interface {
	StepAssigned(assigneeID, entityRef string, stepType StepType)
}

// LogNotifier is the default Notifier; it just writes to the app log.
type LogNotifier struct{}

func (LogNotifier) StepAssigned(assigneeID, entityRef string, stepType StepType) {
	if assigneeID == "" {
		log.Printf("notify: step %s on %s has no assignee yet", stepType, entityRef)
		return
	}
	log.Printf("notify: step %s on %s assigned to %s", stepType, entityRef, assigneeID)
}
