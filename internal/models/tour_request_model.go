package models

import "time"

const (
	TourRequestStatusNew       = "new"
	TourRequestStatusContacted = "contacted"
)

// TourRequest is a prospective member asking to visit the gym.
type TourRequest struct {
	ID            string    `json:"id" firestore:"-"`
	Name          string    `json:"name" firestore:"name"`
	Email         string    `json:"email" firestore:"email"`
	Phone         string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	PreferredDate string    `json:"preferredDate,omitempty" firestore:"preferredDate,omitempty"`
	Message       string    `json:"message,omitempty" firestore:"message,omitempty"`
	Status        string    `json:"status" firestore:"status"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`
}

// TourRequestCreatedEvent is the event type published for new tour requests.
const TourRequestCreatedEvent = "tour_request.created"

// TourRequestEvent is the queue payload announcing a tour request.
type TourRequestEvent struct {
	Type        string      `json:"type"`
	OccurredAt  time.Time   `json:"occurredAt"`
	TourRequest TourRequest `json:"tourRequest"`
}
