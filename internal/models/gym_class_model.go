package models

import "time"

// GymClass is a scheduled group class. Bookings holds the UIDs of the members
// booked into it.
type GymClass struct {
	ID              string    `json:"id" firestore:"-"`
	Name            string    `json:"name" firestore:"name"`
	Instructor      string    `json:"instructor,omitempty" firestore:"instructor,omitempty"`
	Description     string    `json:"description,omitempty" firestore:"description,omitempty"`
	StartsAt        time.Time `json:"startsAt" firestore:"startsAt"`
	DurationMinutes int       `json:"durationMinutes" firestore:"durationMinutes"`
	Capacity        int       `json:"capacity" firestore:"capacity"`
	Bookings        []string  `json:"bookings" firestore:"bookings"`
}

// CurrentBookings is the number of members booked into the class.
func (c *GymClass) CurrentBookings() int {
	return len(c.Bookings)
}

// Full reports whether the class has no free places left.
func (c *GymClass) Full() bool {
	return c.Capacity > 0 && len(c.Bookings) >= c.Capacity
}

// HasBooking reports whether memberID is booked into the class.
func (c *GymClass) HasBooking(memberID string) bool {
	for _, id := range c.Bookings {
		if id == memberID {
			return true
		}
	}
	return false
}
