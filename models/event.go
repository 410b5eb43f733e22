package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Event is a bookable experience listing.
type Event struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	UniqueAspect     string     `json:"unique_aspect"`
	Price            Price      `json:"price"`
	OccurrenceDate   *time.Time `json:"occurence_date"`
	Location         string     `json:"location"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	NumberOfGuests   int        `json:"number_of_guests"`
	NumberOfBookings int        `json:"number_of_bookings"`
	Photos           []string   `json:"photos"`
	Tags             []string   `json:"tags,omitempty"`
	BookingLink      string     `json:"booking_link,omitempty"`
	HostID           int        `json:"host_id,omitempty"`
	HostUsername     string     `json:"host_username,omitempty"`
	HostFirstName    string     `json:"host_first_name,omitempty"`
	HostLastName     string     `json:"host_last_name,omitempty"`
	HostProfilePic   string     `json:"host_profile_pic,omitempty"`
	Reviews          []Review   `json:"reviews,omitempty"`
}

// Available is the number of seats left, never negative.
func (e Event) Available() int {
	if left := e.NumberOfGuests - e.NumberOfBookings; left > 0 {
		return left
	}
	return 0
}

// Listable reports whether the event belongs on the landing grid:
// it has a photo and has not been closed to guests.
func (e Event) Listable() bool {
	return len(e.Photos) > 0 && e.NumberOfGuests != 0
}

// EventCreateRequest is the body of POST /general/event/create.
type EventCreateRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	UniqueAspect   string    `json:"unique_aspect"`
	Price          float64   `json:"price"`
	OccurrenceDate time.Time `json:"occurence_date"`
	Location       string    `json:"location"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	NumberOfGuests int       `json:"number_of_guests"`
	Tags           []string  `json:"tags,omitempty"`
	BookingLink    string    `json:"booking_link,omitempty"`
	Photos         []string  `json:"photos"`
}

// Price decodes the backend's decimal price, which arrives either as a JSON
// number or as a numeric string such as "9.00".
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*p = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("models: invalid price %q: %w", s, err)
		}
		*p = Price(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("models: invalid price %s: %w", data, err)
	}
	*p = Price(f)
	return nil
}

// String formats the price with two decimals.
func (p Price) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}
