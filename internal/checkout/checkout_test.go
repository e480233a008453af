package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCart struct {
	items    []domain.CartItem
	user     *auth.Identity
	cleared  bool
	clearErr error
}

func (c *stubCart) Items() []domain.CartItem { return c.items }

func (c *stubCart) Total() float64 { return domain.CartTotal(c.items) }

func (c *stubCart) User() *auth.Identity { return c.user }

func (c *stubCart) Clear(context.Context) error {
	c.cleared = true
	return c.clearErr
}

type stubOrders struct {
	draft service.OrderDraft
	err   error
}

func (o *stubOrders) Create(_ context.Context, user *auth.Identity, draft service.OrderDraft) (*domain.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.draft = draft
	return &domain.Order{
		ID:          "o1",
		UserID:      user.ID,
		Status:      domain.OrderPending,
		TotalAmount: draft.TotalAmount,
		Items:       draft.Items,
	}, nil
}

type stubEvents struct {
	orders []*domain.Order
	err    error
}

func (e *stubEvents) OrderSubmitted(_ context.Context, order *domain.Order) error {
	if e.err != nil {
		return e.err
	}
	e.orders = append(e.orders, order)
	return nil
}

func fullCart() *stubCart {
	return &stubCart{
		items: []domain.CartItem{
			{ID: "i1", Product: domain.Product{ID: "p1", Name: "Red Shoe", Price: 99.9}, Quantity: 2},
			{ID: "i2", Product: domain.Product{ID: "p2", Name: "Blue Hat", Price: 25}, Quantity: 1},
		},
		user: &auth.Identity{ID: "u1", Email: "shopper@example.com", Name: "Shopper"},
	}
}

func validContact() Contact {
	return Contact{Name: "Maria Silva", Email: "maria@example.com", Phone: "(11) 99999-9999"}
}

func TestMessageFormat(t *testing.T) {
	cart := fullCart()
	msg := Message(validContact(), cart.items, cart.Total())

	want := strings.Join([]string{
		"🛒 NOVO PEDIDO - STG CATALOG",
		"👤 Cliente: Maria Silva",
		"📧 Email: maria@example.com",
		"📦 PRODUTOS:",
		"- Red Shoe - Qtd: 2 - R$ 199,80",
		"- Blue Hat - Qtd: 1 - R$ 25,00",
		"💰 TOTAL: R$ 224,80",
		"---",
		"Pedido via STG Catalog",
	}, "\n")
	assert.Equal(t, want, msg)
}

func TestLinkEncodesMessage(t *testing.T) {
	link := Link("5511999999999", "pedido: 2 itens\ntotal R$ 10,00")

	assert.True(t, strings.HasPrefix(link, "https://wa.me/5511999999999?text="))
	assert.NotContains(t, link, " ")
	assert.NotContains(t, link, "+")
	assert.Contains(t, link, "%20")
	assert.Contains(t, link, "%0A")
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	cart := fullCart()
	orders := &stubOrders{}
	events := &stubEvents{}
	co := New(orders, events, "5511999999999", zap.NewNop())

	result, err := co.Submit(ctx, cart, validContact())
	require.NoError(t, err)

	assert.Equal(t, "o1", result.Order.ID)
	assert.True(t, strings.HasPrefix(result.Link, "https://wa.me/5511999999999?text="))
	assert.Contains(t, result.Message, "TOTAL: R$ 224,80")

	require.Len(t, orders.draft.Items, 2)
	assert.Equal(t, "whatsapp", orders.draft.PaymentMethod)
	assert.InDelta(t, 224.8, orders.draft.TotalAmount, 1e-9)
	assert.InDelta(t, 199.8, orders.draft.Items[0].TotalPrice, 1e-9)

	require.Len(t, events.orders, 1)
	assert.True(t, cart.cleared)
}

func TestSubmitRequiresItemsAndIdentity(t *testing.T) {
	ctx := context.Background()
	co := New(&stubOrders{}, &stubEvents{}, "5511999999999", zap.NewNop())

	_, err := co.Submit(ctx, &stubCart{user: &auth.Identity{ID: "u1"}}, validContact())
	assert.ErrorIs(t, err, service.ErrEmptyCart)

	anonymous := fullCart()
	anonymous.user = nil
	_, err = co.Submit(ctx, anonymous, validContact())
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestSubmitValidatesContact(t *testing.T) {
	ctx := context.Background()
	co := New(&stubOrders{}, &stubEvents{}, "5511999999999", zap.NewNop())

	tests := []struct {
		name    string
		contact Contact
		want    error
	}{
		{"short name", Contact{Name: "M", Email: "m@example.com", Phone: "11999999999"}, ErrNameTooShort},
		{"bad email", Contact{Name: "Maria", Email: "not-an-email", Phone: "11999999999"}, ErrInvalidEmail},
		{"short phone", Contact{Name: "Maria", Email: "m@example.com", Phone: "12345"}, ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := fullCart()
			_, err := co.Submit(ctx, cart, tt.contact)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, cart.cleared)
		})
	}
}

func TestSubmitOrderFailure(t *testing.T) {
	ctx := context.Background()
	cart := fullCart()
	co := New(&stubOrders{err: errors.New("backend down")}, &stubEvents{}, "5511999999999", zap.NewNop())

	_, err := co.Submit(ctx, cart, validContact())
	require.Error(t, err)
	assert.False(t, cart.cleared)
}

func TestSubmitPublishFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	cart := fullCart()
	co := New(&stubOrders{}, &stubEvents{err: errors.New("broker down")}, "5511999999999", zap.NewNop())

	result, err := co.Submit(ctx, cart, validContact())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, cart.cleared)
}
