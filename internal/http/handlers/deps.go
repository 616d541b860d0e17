package handlers

import (
	"context"

	"clothsy/internal/live"
	"clothsy/internal/notify"
	"clothsy/internal/services"
	"clothsy/internal/store"
)

// ContactSender relays contact-form messages. notify.FormspreeClient is the
// production implementation.
type ContactSender interface {
	Send(ctx context.Context, m notify.ContactMessage) error
}

type Deps struct {
	ProductHandler    *ProductHandler
	OrderHandler      *OrderHandler
	SubscriberHandler *SubscriberHandler
	StatsHandler      *StatsHandler
	ContactHandler    *ContactHandler
	AuthHandler       *AuthHandler
	AdminHandler      *AdminHandler
}

func NewDeps(st *store.Store, auth *services.AuthService, contact ContactSender, hub *live.Hub, cookieSecure bool) *Deps {
	checkout := services.NewCheckoutService(st)
	return &Deps{
		ProductHandler:    &ProductHandler{Store: st},
		OrderHandler:      &OrderHandler{Store: st, Checkout: checkout},
		SubscriberHandler: &SubscriberHandler{Store: st},
		StatsHandler:      &StatsHandler{Store: st, Hub: hub},
		ContactHandler:    &ContactHandler{Relay: contact},
		AuthHandler:       &AuthHandler{Auth: auth, CookieSecure: cookieSecure},
		AdminHandler:      &AdminHandler{Store: st},
	}
}
