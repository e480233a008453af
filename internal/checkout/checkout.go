// Package checkout turns a cart into a persisted order plus a WhatsApp deep
// link carrying the order summary. Nothing is sent to WhatsApp server-side;
// the shopper follows the link and the conversation happens there.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"go.uber.org/zap"
)

var (
	ErrNameTooShort = errors.New("name must have at least 2 characters")
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidPhone = errors.New("phone must have at least 10 digits")
)

// Contact is who the store talks to on WhatsApp about this order.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (c Contact) validate() error {
	if len(strings.TrimSpace(c.Name)) < 2 {
		return ErrNameTooShort
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(digits(c.Phone)) < 10 {
		return ErrInvalidPhone
	}
	return nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Cart is the slice of the cart unit checkout reads and clears.
type Cart interface {
	Items() []domain.CartItem
	Total() float64
	User() *auth.Identity
	Clear(ctx context.Context) error
}

type orderCreator interface {
	Create(ctx context.Context, user *auth.Identity, draft service.OrderDraft) (*domain.Order, error)
}

type eventPublisher interface {
	OrderSubmitted(ctx context.Context, order *domain.Order) error
}

type Checkout struct {
	orders orderCreator
	events eventPublisher
	number string // business WhatsApp number, digits with country code
	log    *zap.Logger
}

func New(orders orderCreator, events eventPublisher, number string, log *zap.Logger) *Checkout {
	return &Checkout{orders: orders, events: events, number: number, log: log}
}

// Result is what the storefront needs to finish the flow client-side.
type Result struct {
	Order   *domain.Order `json:"order"`
	Link    string        `json:"link"`
	Message string        `json:"message"`
}

// Submit requires an authenticated shopper and a non-empty cart. It persists
// the order, announces it, clears the cart, and hands back the wa.me link.
// The announcement is best effort; a broker outage does not fail checkout.
func (c *Checkout) Submit(ctx context.Context, cart Cart, contact Contact) (*Result, error) {
	items := cart.Items()
	if len(items) == 0 {
		return nil, service.ErrEmptyCart
	}
	user := cart.User()
	if user == nil {
		return nil, service.ErrNotAuthenticated
	}
	if err := contact.validate(); err != nil {
		return nil, err
	}

	total := cart.Total()
	message := Message(contact, items, total)
	link := Link(c.number, message)

	lines := make([]domain.OrderItem, len(items))
	for i, it := range items {
		lines[i] = domain.OrderItem{
			ProductID:  it.Product.ID,
			Quantity:   it.Quantity,
			UnitPrice:  it.Product.Price,
			TotalPrice: it.Product.Price * float64(it.Quantity),
		}
	}

	order, err := c.orders.Create(ctx, user, service.OrderDraft{
		TotalAmount:   total,
		PaymentMethod: "whatsapp",
		ShippingAddress: domain.Address{
			Name:  contact.Name,
			Phone: contact.Phone,
		},
		Notes: fmt.Sprintf("Contato: %s <%s>, tel %s", contact.Name, contact.Email, contact.Phone),
		Items: lines,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if err := c.events.OrderSubmitted(ctx, order); err != nil {
		c.log.Warn("order announcement failed", zap.String("order_id", order.ID), zap.Error(err))
	}

	if err := cart.Clear(ctx); err != nil {
		c.log.Warn("clearing cart after checkout failed",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	return &Result{Order: order, Link: link, Message: message}, nil
}

// Message renders the plain-text order summary the shopper sends.
func Message(contact Contact, items []domain.CartItem, total float64) string {
	var b strings.Builder
	b.WriteString("🛒 NOVO PEDIDO - STG CATALOG\n")
	b.WriteString("👤 Cliente: " + contact.Name + "\n")
	b.WriteString("📧 Email: " + contact.Email + "\n")
	b.WriteString("📦 PRODUTOS:\n")
	for _, it := range items {
		lineTotal := it.Product.Price * float64(it.Quantity)
		fmt.Fprintf(&b, "- %s - Qtd: %d - R$ %s\n", it.Product.Name, it.Quantity, formatPrice(lineTotal))
	}
	b.WriteString("💰 TOTAL: R$ " + formatPrice(total) + "\n")
	b.WriteString("---\nPedido via STG Catalog")
	return b.String()
}

// Link builds the wa.me deep link for a prefilled message.
func Link(number, message string) string {
	// QueryEscape uses + for spaces; wa.me wants percent encoding.
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + number + "?text=" + encoded
}

// formatPrice renders two decimals with a comma, Brazilian style.
func formatPrice(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}
