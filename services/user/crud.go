package user

import (
	"context"
	"fmt"

	"experiencebylocals/models"
	"experiencebylocals/services/session"

	"golang.org/x/sync/errgroup"
)

// Account loads the caller's profile, bookings and, for hosts, hosted experiences.
func (s *DefaultUserService) Account(ctx context.Context, sess *session.Session) (*Account, error) {
	u, err := sess.User(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNoSession
	}
	acct := &Account{User: u, Bookings: []models.Booking{}, HostedEvents: []models.HostedEvent{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bookings, err := sess.Backend().Bookings(gctx)
		if err != nil {
			return fmt.Errorf("failed to load bookings: %w", err)
		}
		if bookings != nil {
			acct.Bookings = bookings
		}
		return nil
	})
	if u.IsHost {
		g.Go(func() error {
			hosted, err := sess.Backend().HostedEvents(gctx)
			if err != nil {
				return fmt.Errorf("failed to load hosted events: %w", err)
			}
			if hosted != nil {
				acct.HostedEvents = hosted
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetHost loads a public profile.
func (s *DefaultUserService) GetHost(ctx context.Context, sess *session.Session, id int) (*models.User, error) {
	return sess.Backend().GetUser(ctx, id)
}
