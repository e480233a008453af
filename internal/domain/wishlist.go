package domain

import "time"

type WishlistItem struct {
	ID        string    `json:"id"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
}
