package store

import (
	"context"
	"errors"

	"clothsy/internal/domain"
)

var (
	// ErrRemote wraps every failure reported by a remote table.
	ErrRemote = errors.New("remote data service error")
	// ErrDuplicate is returned by tables when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned for ids the mirror (or the remote) does not know.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for drafts rejected before any remote call.
	ErrInvalid = errors.New("invalid input")
)

// ProductTable lists products newest first.
type ProductTable interface {
	List(ctx context.Context) ([]domain.Product, error)
	Insert(ctx context.Context, d domain.ProductDraft) (domain.Product, error)
	Update(ctx context.Context, id string, p domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type OrderTable interface {
	List(ctx context.Context) ([]domain.Order, error)
	Insert(ctx context.Context, o domain.Order) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, s domain.OrderStatus) error
	Delete(ctx context.Context, id string) error
}

// SubscriberTable must reject a second row with the same email with ErrDuplicate.
type SubscriberTable interface {
	List(ctx context.Context) ([]domain.Subscriber, error)
	Insert(ctx context.Context, email string) (domain.Subscriber, error)
	Count(ctx context.Context) (int, error)
}

// StatsTable is the site_stats aggregate plus its status and day buckets.
type StatsTable interface {
	Get(ctx context.Context) (domain.SiteStats, error)
	Add(ctx context.Context, c domain.Counter, delta int) error
	Set(ctx context.Context, c domain.Counter, v int) error
	AddStatus(ctx context.Context, s domain.OrderStatus, delta int) error
	SetStatus(ctx context.Context, s domain.OrderStatus, v int) error
	AddDaily(ctx context.Context, series domain.Series, day string, delta int) error
}

// Tables is everything the store needs from the Remote Data Service.
type Tables struct {
	Products    ProductTable
	Orders      OrderTable
	Subscribers SubscriberTable
	Stats       StatsTable
}

// Relay receives new orders after they are persisted. Dispatch must not block.
type Relay interface {
	Dispatch(o domain.Order)
}
