package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clothsy/internal/domain"
	"clothsy/internal/store"
)

type SubscriberRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSubscriberRepo(db *sqlx.DB) *SubscriberRepo { return &SubscriberRepo{db: db, now: time.Now} }

type subscriberRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	SubscribedAt string `db:"subscribed_at"`
}

func (r *SubscriberRepo) List(ctx context.Context) ([]domain.Subscriber, error) {
	var rows []subscriberRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, email, subscribed_at FROM subscribers ORDER BY subscribed_at DESC
	`); err != nil {
		return nil, err
	}
	out := make([]domain.Subscriber, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Subscriber{ID: row.ID, Email: row.Email, SubscribedAt: parseTS(row.SubscribedAt)})
	}
	return out, nil
}

// Insert returns store.ErrDuplicate when the email is already subscribed.
func (r *SubscriberRepo) Insert(ctx context.Context, email string) (domain.Subscriber, error) {
	s := domain.Subscriber{ID: uuid.NewString(), Email: email, SubscribedAt: r.now().UTC()}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers(id, email, subscribed_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, s.ID, s.Email, formatTS(s.SubscribedAt))
	if err != nil {
		return domain.Subscriber{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Subscriber{}, store.ErrDuplicate
	}
	return s, nil
}

func (r *SubscriberRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM subscribers`)
	return n, err
}
