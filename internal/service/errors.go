package service

import "errors"

var (
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)
