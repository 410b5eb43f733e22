package models

import "time"

// Booking links the caller to one experience occurrence.
type Booking struct {
	ID         int        `json:"id"`
	EventID    int        `json:"event_id"`
	EventTitle string     `json:"event_title"`
	EventDate  *time.Time `json:"event_date"`
}

// HostedEvent is the short form of an experience on the host's account page.
type HostedEvent struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	NumberOfBookings int    `json:"number_of_bookings"`
}
