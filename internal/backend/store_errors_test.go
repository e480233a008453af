package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCouponUsedCount_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE coupons").WillReturnError(errors.New("connection reset"))

	store := &Store{db: db}
	err = store.SetCouponUsedCount(context.Background(), "c1", 2)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCartItems_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT ci.id").WillReturnError(errors.New("database is down"))

	store := &Store{db: db}
	items, err := store.ListCartItems(context.Background(), "u1")
	assert.Nil(t, items)
	assert.ErrorContains(t, err, "database is down")
}

func TestInsertOrder_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO orders").WillReturnError(errors.New("deadlock detected"))

	store := &Store{db: db}
	err = store.InsertOrder(context.Background(), &domain.Order{
		ID: "o1", UserID: "u1", Status: domain.OrderPending, PaymentStatus: domain.PaymentPending,
	})
	assert.ErrorContains(t, err, "insert order")
}
