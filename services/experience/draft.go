package experience

import (
	"io"
	"strconv"
	"strings"
	"time"

	"experiencebylocals/models"
)

// Photo is one attached file. Open is called once, right before the upload.
type Photo struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// Draft is the create form as the host filled it in.
type Draft struct {
	Title        string
	Description  string
	UniqueAspect string
	Location     string
	Date         time.Time
	Price        float64
	Guests       int
	Latitude     *float64
	Longitude    *float64
	Tags         []string
	BookingLink  string
	HostCode     string
	Photos       []Photo
}

// Validate checks the required fields and, when hostCode is set, the host code.
func (d Draft) Validate(hostCode string) error {
	fields := map[string]string{}
	required := map[string]string{
		"title":         d.Title,
		"description":   d.Description,
		"unique_aspect": d.UniqueAspect,
		"location":      d.Location,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			fields[name] = "required"
		}
	}
	if d.Date.IsZero() {
		fields["occurence_date"] = "required"
	}
	if d.Price < 0 {
		fields["price"] = "must not be negative"
	}
	if d.Guests < 1 {
		fields["number_of_guests"] = "must be at least 1"
	}
	if (d.Latitude == nil) != (d.Longitude == nil) {
		fields["coordinates"] = "latitude and longitude must be given together"
	}
	if hostCode != "" && strings.TrimSpace(d.HostCode) != hostCode {
		fields["host_code"] = "does not match"
	}
	for i, p := range d.Photos {
		if p.Open == nil || p.Filename == "" {
			fields["photos"] = "attachment " + strconv.Itoa(i+1) + " is empty"
			break
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (d Draft) request() models.EventCreateRequest {
	return models.EventCreateRequest{
		Title:          strings.TrimSpace(d.Title),
		Description:    strings.TrimSpace(d.Description),
		UniqueAspect:   strings.TrimSpace(d.UniqueAspect),
		Price:          d.Price,
		OccurrenceDate: d.Date,
		Location:       strings.TrimSpace(d.Location),
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		NumberOfGuests: d.Guests,
		Tags:           d.Tags,
		BookingLink:    strings.TrimSpace(d.BookingLink),
		Photos:         []string{},
	}
}
