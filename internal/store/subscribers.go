package store

import (
	"context"
	"errors"
	"fmt"

	"clothsy/internal/domain"
	"clothsy/internal/validate"
)

type SubscribeOutcome int

const (
	Subscribed SubscribeOutcome = iota + 1
	AlreadySubscribed
)

func (o SubscribeOutcome) String() string {
	switch o {
	case Subscribed:
		return "subscribed"
	case AlreadySubscribed:
		return "already_subscribed"
	}
	return "unknown"
}

// AddSubscriber relies on the remote unique constraint on email. A duplicate is
// reported as AlreadySubscribed with a nil error and leaves the mirror untouched.
func (s *Store) AddSubscriber(ctx context.Context, email string) (domain.Subscriber, SubscribeOutcome, error) {
	email, ok := validate.Email(domain.NormalizeEmail(email))
	if !ok {
		return domain.Subscriber{}, 0, fmt.Errorf("%w: invalid email", ErrInvalid)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sub, err := s.tables.Subscribers.Insert(ctx, email)
	if errors.Is(err, ErrDuplicate) {
		return domain.Subscriber{}, AlreadySubscribed, nil
	}
	if err != nil {
		return domain.Subscriber{}, 0, remoteErr("insert subscriber", err)
	}

	s.mu.Lock()
	s.subscribers = append([]domain.Subscriber{sub}, s.subscribers...)
	s.mu.Unlock()

	s.recount(ctx, domain.CounterSubscribers, s.tables.Subscribers.Count)
	s.notify()
	return sub, Subscribed, nil
}
