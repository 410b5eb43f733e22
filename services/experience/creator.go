// Package experience runs the multi-step create flow: submit the form, upload
// each photo, then patch the experience with the photos that made it.
package experience

import (
	"context"
	"fmt"
	"io"

	"experiencebylocals/models"

	"go.uber.org/zap"
)

// State is a step of the create flow.
type State int

const (
	Drafting State = iota
	Submitting
	Uploading
	Patching
	Done
	PartialFailure
)

func (s State) String() string {
	switch s {
	case Drafting:
		return "drafting"
	case Submitting:
		return "submitting"
	case Uploading:
		return "uploading"
	case Patching:
		return "patching"
	case Done:
		return "done"
	case PartialFailure:
		return "partial_failure"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// API is the part of the backend the flow needs.
type API interface {
	CreateEvent(ctx context.Context, req models.EventCreateRequest) (*models.Event, error)
	UpdatePhotos(ctx context.Context, id int, urls []string) error
}

// PhotoStore uploads one photo for an experience and returns its URL.
type PhotoStore interface {
	Upload(ctx context.Context, eventID int, filename string, content io.Reader) (string, error)
}

// FailedPhoto is an attachment that did not end up on the experience.
type FailedPhoto struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Outcome reports a finished flow. The experience exists whenever an Outcome
// is returned.
type Outcome struct {
	Event     *models.Event `json:"event"`
	State     State         `json:"state"`
	PhotoURLs []string      `json:"photo_urls"`
	Failed    []FailedPhoto `json:"failed"`
}

// Creator runs create flows. It is safe for concurrent use.
type Creator struct {
	// HostCode, when set, must be presented by the draft.
	HostCode string
	// OnTransition observes every state change.
	OnTransition func(ctx context.Context, eventID int, s State)
	Logger       *zap.Logger
}

// NewCreator returns a Creator that logs and counts transitions.
func NewCreator(hostCode string, logger *zap.Logger) *Creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	cr := &Creator{HostCode: hostCode, Logger: logger}
	cr.OnTransition = func(_ context.Context, eventID int, s State) {
		transitions.WithLabelValues(s.String()).Inc()
		cr.Logger.Debug("create flow transition", zap.Int("eventID", eventID), zap.Stringer("state", s))
	}
	return cr
}

func (cr *Creator) transition(ctx context.Context, eventID int, s State) {
	if cr.OnTransition != nil {
		cr.OnTransition(ctx, eventID, s)
	}
}

// Create validates d, creates the experience, uploads its photos one at a
// time and patches the experience with the successful URLs.
//
// A returned error means nothing was created: the draft was invalid
// (*ValidationError) or the create call failed (ErrNotSignedIn,
// ErrNotPermitted or a transport error). Photo problems never produce an
// error; they are listed in Outcome.Failed.
func (cr *Creator) Create(ctx context.Context, api API, store PhotoStore, d Draft) (*Outcome, error) {
	cr.transition(ctx, 0, Drafting)
	if err := d.Validate(cr.HostCode); err != nil {
		return nil, err
	}

	cr.transition(ctx, 0, Submitting)
	event, err := api.CreateEvent(ctx, d.request())
	if err != nil {
		return nil, classifyCreate(err)
	}

	out := &Outcome{Event: event, PhotoURLs: []string{}, Failed: []FailedPhoto{}}
	if len(d.Photos) == 0 {
		out.State = Done
		cr.transition(ctx, event.ID, Done)
		return out, nil
	}

	cr.transition(ctx, event.ID, Uploading)
	type uploaded struct {
		filename string
		url      string
	}
	var ok []uploaded
	for _, p := range d.Photos {
		if err := ctx.Err(); err != nil {
			out.Failed = append(out.Failed, FailedPhoto{Filename: p.Filename, Reason: err.Error()})
			continue
		}
		url, err := cr.upload(ctx, store, event.ID, p)
		if err != nil {
			photoUploads.WithLabelValues("failed").Inc()
			cr.Logger.Warn("photo upload failed",
				zap.Int("eventID", event.ID),
				zap.String("filename", p.Filename),
				zap.Error(err),
			)
			out.Failed = append(out.Failed, FailedPhoto{Filename: p.Filename, Reason: err.Error()})
			continue
		}
		photoUploads.WithLabelValues("ok").Inc()
		ok = append(ok, uploaded{filename: p.Filename, url: url})
	}

	if len(ok) > 0 {
		urls := make([]string, len(ok))
		for i, u := range ok {
			urls[i] = u.url
		}
		var patchErr error
		if patchErr = ctx.Err(); patchErr == nil {
			cr.transition(ctx, event.ID, Patching)
			patchErr = api.UpdatePhotos(ctx, event.ID, urls)
		}
		if patchErr != nil {
			cr.Logger.Error("failed to attach photos",
				zap.Int("eventID", event.ID),
				zap.Int("photos", len(urls)),
				zap.Error(patchErr),
			)
			for _, u := range ok {
				out.Failed = append(out.Failed, FailedPhoto{Filename: u.filename, Reason: "could not attach photo: " + patchErr.Error()})
			}
		} else {
			out.PhotoURLs = urls
			event.Photos = urls
		}
	}

	out.State = Done
	if len(out.Failed) > 0 {
		out.State = PartialFailure
	}
	cr.transition(ctx, event.ID, out.State)
	return out, nil
}

func (cr *Creator) upload(ctx context.Context, store PhotoStore, eventID int, p Photo) (string, error) {
	rc, err := p.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", p.Filename, err)
	}
	defer rc.Close()
	return store.Upload(ctx, eventID, p.Filename, rc)
}
