package user

import (
	"context"
	"errors"
	"fmt"

	"experiencebylocals/models"
	"experiencebylocals/services/chat"
	"experiencebylocals/services/session"
)

// contactLimit caps how many chat users one contacts page resolves.
const contactLimit = 50

// SyncChat reconciles the caller's chat login and returns it.
func (s *DefaultUserService) SyncChat(ctx context.Context, sess *session.Session) (chat.Record, error) {
	u, err := sess.User(ctx)
	if err != nil {
		return chat.Record{}, err
	}
	if u == nil {
		return chat.Record{}, ErrNoSession
	}
	if s.Chat == nil {
		return chat.Record{}, ErrChatDisabled
	}
	rec, err := s.Chat.Sync(ctx, sess.Key, u.Email, u.DisplayName())
	if errors.Is(err, chat.ErrNotConfigured) {
		return chat.Record{}, ErrChatDisabled
	}
	return rec, err
}

// Contacts lists the chat users the caller may message, without the caller.
func (s *DefaultUserService) Contacts(ctx context.Context, sess *session.Session) ([]models.ChatUser, error) {
	u, err := sess.User(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNoSession
	}
	if s.Platform == nil {
		return nil, ErrChatDisabled
	}

	uids, err := sess.Backend().AllowedUIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("Contacts: %w", err)
	}
	own := chat.UIDFromEmail(u.Email)
	others := make([]string, 0, len(uids))
	for _, uid := range uids {
		if uid != "" && uid != own {
			others = append(others, uid)
		}
	}
	if len(others) == 0 {
		return []models.ChatUser{}, nil
	}
	if len(others) > contactLimit {
		others = others[:contactLimit]
	}

	users, err := s.Platform.ListUsers(ctx, others, contactLimit)
	if errors.Is(err, chat.ErrNotConfigured) {
		return nil, ErrChatDisabled
	}
	if err != nil {
		return nil, fmt.Errorf("Contacts: %w", err)
	}
	out := make([]models.ChatUser, 0, len(users))
	for _, cu := range users {
		if cu.UID != own {
			out = append(out, cu)
		}
	}
	return out, nil
}

// StartDM opens a conversation with userID and returns the chat uid to open.
func (s *DefaultUserService) StartDM(ctx context.Context, sess *session.Session, userID int) (string, error) {
	uid, err := sess.Backend().StartDM(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("StartDM: %w", err)
	}
	return uid, nil
}
