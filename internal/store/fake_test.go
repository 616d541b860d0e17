package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clothsy/internal/domain"
	"clothsy/internal/store"
)

var errDown = errors.New("service unavailable")

// fakeRemote is an in-memory stand-in for the remote data service. fail names the
// operations ("orders.insert", "stats.add", ...) that should return errDown.
type fakeRemote struct {
	mu          sync.Mutex
	products    []domain.Product
	orders      []domain.Order
	subscribers []domain.Subscriber
	stats       domain.SiteStats
	calls       map[string]int
	fail        map[string]bool
	nextID      int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{stats: domain.EmptyStats(), calls: map[string]int{}, fail: map[string]bool{}}
}

func (f *fakeRemote) tables() store.Tables {
	return store.Tables{
		Products:    fakeProducts{f},
		Orders:      fakeOrders{f},
		Subscribers: fakeSubscribers{f},
		Stats:       fakeStats{f},
	}
}

func (f *fakeRemote) enter(op string) error {
	f.calls[op]++
	if f.fail[op] {
		return errDown
	}
	return nil
}

func (f *fakeRemote) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) Fail(op string, on bool) {
	f.mu.Lock()
	f.fail[op] = on
	f.mu.Unlock()
}

func (f *fakeRemote) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeProducts struct{ f *fakeRemote }

func (t fakeProducts) List(ctx context.Context) ([]domain.Product, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("products.list"); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(t.f.products))
	for i, p := range t.f.products {
		out[i] = p.Clone()
	}
	return out, nil
}

func (t fakeProducts) Insert(ctx context.Context, d domain.ProductDraft) (domain.Product, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("products.insert"); err != nil {
		return domain.Product{}, err
	}
	t.f.nextID++
	p := domain.Product{
		ID: fmt.Sprintf("p%d", t.f.nextID), Code: d.Code, Name: d.Name, Description: d.Description,
		Price: d.Price, OriginalPrice: d.OriginalPrice, Sizes: d.Sizes.Clone(), Colors: d.Colors.Clone(),
		Images: d.Images.Clone(), Model3D: d.Model3D, Category: d.Category, InStock: d.InStock,
		Visible: d.Visible, CreatedAt: time.Now().UTC(),
	}
	t.f.products = append([]domain.Product{p}, t.f.products...)
	return p.Clone(), nil
}

func (t fakeProducts) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("products.update"); err != nil {
		return domain.Product{}, err
	}
	for i, p := range t.f.products {
		if p.ID == id {
			t.f.products[i] = patch.Apply(p)
			return t.f.products[i].Clone(), nil
		}
	}
	return domain.Product{}, store.ErrNotFound
}

func (t fakeProducts) Delete(ctx context.Context, id string) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("products.delete"); err != nil {
		return err
	}
	for i, p := range t.f.products {
		if p.ID == id {
			t.f.products = append(t.f.products[:i], t.f.products[i+1:]...)
			return nil
		}
	}
	return nil
}

func (t fakeProducts) Count(ctx context.Context) (int, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("products.count"); err != nil {
		return 0, err
	}
	return len(t.f.products), nil
}

type fakeOrders struct{ f *fakeRemote }

func (t fakeOrders) List(ctx context.Context) ([]domain.Order, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("orders.list"); err != nil {
		return nil, err
	}
	return append([]domain.Order{}, t.f.orders...), nil
}

func (t fakeOrders) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("orders.insert"); err != nil {
		return domain.Order{}, err
	}
	t.f.orders = append([]domain.Order{o}, t.f.orders...)
	return o, nil
}

func (t fakeOrders) UpdateStatus(ctx context.Context, id string, s domain.OrderStatus) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("orders.update"); err != nil {
		return err
	}
	for i := range t.f.orders {
		if t.f.orders[i].ID == id {
			t.f.orders[i].Status = s
		}
	}
	return nil
}

func (t fakeOrders) Delete(ctx context.Context, id string) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("orders.delete"); err != nil {
		return err
	}
	for i, o := range t.f.orders {
		if o.ID == id {
			t.f.orders = append(t.f.orders[:i], t.f.orders[i+1:]...)
			break
		}
	}
	return nil
}

type fakeSubscribers struct{ f *fakeRemote }

func (t fakeSubscribers) List(ctx context.Context) ([]domain.Subscriber, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("subscribers.list"); err != nil {
		return nil, err
	}
	return append([]domain.Subscriber{}, t.f.subscribers...), nil
}

func (t fakeSubscribers) Insert(ctx context.Context, email string) (domain.Subscriber, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("subscribers.insert"); err != nil {
		return domain.Subscriber{}, err
	}
	for _, s := range t.f.subscribers {
		if s.Email == email {
			return domain.Subscriber{}, store.ErrDuplicate
		}
	}
	t.f.nextID++
	s := domain.Subscriber{ID: fmt.Sprintf("s%d", t.f.nextID), Email: email, SubscribedAt: time.Now().UTC()}
	t.f.subscribers = append([]domain.Subscriber{s}, t.f.subscribers...)
	return s, nil
}

func (t fakeSubscribers) Count(ctx context.Context) (int, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("subscribers.count"); err != nil {
		return 0, err
	}
	return len(t.f.subscribers), nil
}

type fakeStats struct{ f *fakeRemote }

func (t fakeStats) Get(ctx context.Context) (domain.SiteStats, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("stats.get"); err != nil {
		return domain.SiteStats{}, err
	}
	return t.f.stats.Clone(), nil
}

func (t fakeStats) Add(ctx context.Context, c domain.Counter, delta int) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("stats.add"); err != nil {
		return err
	}
	t.f.stats.SetCounter(c, max(0, t.f.stats.Counter(c)+delta))
	return nil
}

func (t fakeStats) Set(ctx context.Context, c domain.Counter, v int) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("stats.set"); err != nil {
		return err
	}
	t.f.stats.SetCounter(c, v)
	return nil
}

func (t fakeStats) AddStatus(ctx context.Context, s domain.OrderStatus, delta int) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("stats.status"); err != nil {
		return err
	}
	t.f.stats.OrdersByStatus[s] = max(0, t.f.stats.OrdersByStatus[s]+delta)
	return nil
}

func (t fakeStats) SetStatus(ctx context.Context, s domain.OrderStatus, v int) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("stats.setstatus"); err != nil {
		return err
	}
	t.f.stats.OrdersByStatus[s] = v
	return nil
}

func (t fakeStats) AddDaily(ctx context.Context, series domain.Series, day string, delta int) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.enter("stats.daily"); err != nil {
		return err
	}
	t.f.stats.AddDaily(series, day, delta)
	return nil
}

type recordingRelay struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (r *recordingRelay) Dispatch(o domain.Order) {
	r.mu.Lock()
	r.orders = append(r.orders, o)
	r.mu.Unlock()
}
