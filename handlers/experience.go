package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"experiencebylocals/middleware"
	"experiencebylocals/models"
	"experiencebylocals/services/backend"
	"experiencebylocals/services/experience"
	"experiencebylocals/services/filter"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxCreateForm bounds the in-memory part of a create form; larger photos
// spill to temp files.
const maxCreateForm = 32 << 20

// PhotoStoreFactory returns the photo store for one request's backend client.
type PhotoStoreFactory func(client *backend.Client) experience.PhotoStore

// ExperienceHandler serves browsing, viewing, creating and deleting experiences.
type ExperienceHandler struct {
	Creator *experience.Creator
	Photos  PhotoStoreFactory
}

func NewExperienceHandler(creator *experience.Creator, photos PhotoStoreFactory) *ExperienceHandler {
	return &ExperienceHandler{Creator: creator, Photos: photos}
}

// experienceView adds the derived seat count to an event.
type experienceView struct {
	models.Event
	Available int `json:"available"`
}

func viewOf(e models.Event) experienceView {
	if e.Photos == nil {
		e.Photos = []string{}
	}
	return experienceView{Event: e, Available: e.Available()}
}

// ListExperiencesHandler forwards the canonical filter to the backend. The
// listing is always date sorted; curated=true keeps only landing-grid events.
func (h *ExperienceHandler) ListExperiencesHandler(c *gin.Context) {
	query := c.Request.URL.Query()
	f, err := filter.ParseValues(query)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	f.SortByDate = true

	s := middleware.GetSession(c)
	events, err := s.Backend().ListEvents(c.Request.Context(), f.Params())
	if err != nil {
		getLogger(c).Error("failed to list experiences", zap.String("query", filter.Encode(f)), zap.Error(err))
		fail(c, err)
		return
	}

	curated := query.Get("curated") == "true"
	views := make([]experienceView, 0, len(events))
	for _, e := range events {
		if curated && !e.Listable() {
			continue
		}
		views = append(views, viewOf(e))
	}
	respond(c, http.StatusOK, gin.H{"experiences": views, "query": filter.Encode(f)})
}

// FilterHandler echoes the canonical query string for a selection, for deep links.
func (h *ExperienceHandler) FilterHandler(c *gin.Context) {
	f, err := filter.ParseValues(c.Request.URL.Query())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": filter.Encode(f), "params": f.Params().Values()})
}

// GetExperienceHandler returns one experience joined with its reviews.
func (h *ExperienceHandler) GetExperienceHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	client := middleware.GetSession(c).Backend()

	var (
		event   *models.Event
		reviews []models.Review
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		event, err = client.GetEvent(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = client.Reviews(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		fail(c, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	event.Reviews = reviews
	respond(c, http.StatusOK, viewOf(*event))
}

// CreateExperienceHandler runs the multi-step create flow on a multipart form.
// The response is 201 whenever the experience exists, including when some
// photos failed.
func (h *ExperienceHandler) CreateExperienceHandler(c *gin.Context) {
	logger := getLogger(c)
	if err := c.Request.ParseMultipartForm(maxCreateForm); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid create form", err.Error())
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll()

	draft, err := draftFromForm(form)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	client := middleware.GetSession(c).Backend()
	outcome, err := h.Creator.Create(c.Request.Context(), client, h.Photos(client), draft)
	if err != nil {
		logger.Debug("create experience rejected", zap.Error(err))
		fail(c, err)
		return
	}
	logger.Info("experience created",
		zap.Int("eventID", outcome.Event.ID),
		zap.Stringer("state", outcome.State),
		zap.Int("photos", len(outcome.PhotoURLs)),
		zap.Int("failed", len(outcome.Failed)),
	)
	respond(c, http.StatusCreated, outcome)
}

func (h *ExperienceHandler) DeleteExperienceHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := middleware.GetSession(c).Backend().DeleteEvent(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "experience deleted"})
}

// draftFromForm reads the create form. Malformed numbers and dates are
// reported as field errors alongside the draft's own validation.
func draftFromForm(form *multipart.Form) (experience.Draft, error) {
	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	fields := map[string]string{}

	d := experience.Draft{
		Title:        get("title"),
		Description:  get("description"),
		UniqueAspect: get("unique_aspect"),
		Location:     get("location"),
		BookingLink:  get("booking_link"),
		HostCode:     get("host_code"),
		Tags:         formTags(form.Value["tags"]),
	}

	if raw := get("occurence_date"); raw != "" {
		t, err := parseFormDate(raw)
		if err != nil {
			fields["occurence_date"] = "must be a date"
		}
		d.Date = t
	}
	if raw := get("price"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields["price"] = "must be a number"
		}
		d.Price = p
	}
	if raw := get("number_of_guests"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields["number_of_guests"] = "must be a whole number"
		}
		d.Guests = n
	}
	d.Latitude = formFloat(get("latitude"), "latitude", fields)
	d.Longitude = formFloat(get("longitude"), "longitude", fields)

	for _, fh := range form.File["photos"] {
		fh := fh
		d.Photos = append(d.Photos, experience.Photo{
			Filename: fh.Filename,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	if len(fields) > 0 {
		return d, &experience.ValidationError{Fields: fields}
	}
	return d, nil
}

func formFloat(raw, key string, fields map[string]string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fields[key] = "must be a number"
		return nil
	}
	return &f
}

// formTags accepts repeated tags fields and comma separated lists.
func formTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// parseFormDate accepts RFC 3339, a datetime-local value or a plain date.
func parseFormDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
