package model

import "time"

// Bag is a user-logged coffee product. RoastLevel is free text such as "Medium".
type Bag struct {
	ID         string    `json:"id"`
	BrandName  string    `json:"brand_name"`
	RoastLevel string    `json:"roast_level"`
	Origin     string    `json:"origin"`
	Location   string    `json:"location,omitempty"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
