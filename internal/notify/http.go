package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clothsy/internal/domain"
)

func postJSON(ctx context.Context, client *http.Client, url string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %d %s", url, resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// WebhookSink posts a flat order summary to a Google Apps Script web app that
// appends it to the orders sheet.
type WebhookSink struct {
	URL    string
	Client *http.Client
}

type sheetRow struct {
	OrderID         string      `json:"orderId"`
	CustomerName    string      `json:"customerName"`
	CustomerPhone   string      `json:"customerPhone"`
	CustomerCity    string      `json:"customerCity"`
	CustomerAddress string      `json:"customerAddress"`
	CustomerEmail   string      `json:"customerEmail"`
	ProductName     string      `json:"productName"`
	Variant         string      `json:"variant"`
	Quantity        int         `json:"quantity"`
	TotalPrice      json.Number `json:"totalPrice"`
}

func (w *WebhookSink) Name() string { return "sheets" }

func (w *WebhookSink) Send(ctx context.Context, o domain.Order) error {
	return postJSON(ctx, clientOrDefault(w.Client), w.URL, sheetRow{
		OrderID: o.ID, CustomerName: o.CustomerName, CustomerPhone: o.CustomerPhone,
		CustomerCity: o.CustomerCity, CustomerAddress: o.CustomerAddress, CustomerEmail: o.CustomerEmail,
		ProductName: o.ProductName, Variant: o.Variant(), Quantity: o.Quantity, TotalPrice: json.Number(o.Total().String()),
	})
}

const EmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSSink sends the order through an EmailJS template.
type EmailJSSink struct {
	Endpoint   string // defaults to EmailJSEndpoint
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string // optional access token for server-side calls
	ToName     string
	Client     *http.Client
}

func (e *EmailJSSink) Name() string { return "emailjs" }

func (e *EmailJSSink) Send(ctx context.Context, o domain.Order) error {
	endpoint := e.Endpoint
	if endpoint == "" {
		endpoint = EmailJSEndpoint
	}
	notes := o.Notes
	if notes == "" {
		notes = "No notes"
	}
	body := map[string]any{
		"service_id":  e.ServiceID,
		"template_id": e.TemplateID,
		"user_id":     e.PublicKey,
		"template_params": map[string]any{
			"order_id":         o.ID,
			"to_name":          e.ToName,
			"customer_name":    o.CustomerName,
			"customer_phone":   o.CustomerPhone,
			"customer_email":   o.CustomerEmail,
			"customer_city":    o.CustomerCity,
			"customer_address": o.CustomerAddress,
			"product_name":     o.ProductName,
			"size":             o.Size,
			"color":            o.Color,
			"quantity":         o.Quantity,
			"total_price":      domain.FormatPrice(o.Total()),
			"notes":            notes,
		},
	}
	if e.PrivateKey != "" {
		body["accessToken"] = e.PrivateKey
	}
	return postJSON(ctx, clientOrDefault(e.Client), endpoint, body)
}

// ContactMessage is a storefront contact-form submission.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// FormspreeClient relays contact messages to a Formspree form.
type FormspreeClient struct {
	FormID string
	Base   string // defaults to https://formspree.io/f/
	Client *http.Client
}

func (f *FormspreeClient) Send(ctx context.Context, m ContactMessage) error {
	base := f.Base
	if base == "" {
		base = "https://formspree.io/f/"
	}
	return postJSON(ctx, clientOrDefault(f.Client), base+f.FormID, m)
}
