package dto

import (
	"time"

	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

// BagRequest is the body of POST /api/v1/bags.
type BagRequest struct {
	BrandName  string `json:"brand_name"`
	RoastLevel string `json:"roast_level"`
	Origin     string `json:"origin"`
	Location   string `json:"location,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// ToInput converts the request to a service input.
func (r *BagRequest) ToInput() service.BagInput {
	return service.BagInput{
		BrandName:  r.BrandName,
		RoastLevel: r.RoastLevel,
		Origin:     r.Origin,
		Location:   r.Location,
		ImageURL:   r.ImageURL,
	}
}

// UpdateBagRequest is a merge write to a bag.
type UpdateBagRequest struct {
	BrandName  *string `json:"brand_name,omitempty"`
	RoastLevel *string `json:"roast_level,omitempty"`
	Origin     *string `json:"origin,omitempty"`
	Location   *string `json:"location,omitempty"`
	ImageURL   *string `json:"image_url,omitempty"`
}

// ToInput converts the request to a service input.
func (r *UpdateBagRequest) ToInput() service.BagUpdateInput {
	return service.BagUpdateInput{
		BrandName:  r.BrandName,
		RoastLevel: r.RoastLevel,
		Origin:     r.Origin,
		Location:   r.Location,
		ImageURL:   r.ImageURL,
	}
}

// BagResponse is a bag in API responses.
type BagResponse struct {
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

// ToBagResponse converts a Bag model.
func ToBagResponse(b *model.Bag) BagResponse {
	return BagResponse{
		ID:         b.ID,
		BrandName:  b.BrandName,
		RoastLevel: b.RoastLevel,
		Origin:     b.Origin,
		Location:   b.Location,
		UserID:     b.UserID,
		UserName:   b.UserName,
		ImageURL:   b.ImageURL,
		CreatedAt:  b.CreatedAt,
	}
}

// ToBagResponses converts a slice of Bag models.
func ToBagResponses(bags []*model.Bag) []BagResponse {
	out := make([]BagResponse, len(bags))
	for i, b := range bags {
		out[i] = ToBagResponse(b)
	}
	return out
}

// ImageResponse is the URL of a stored image.
type ImageResponse struct {
	URL string `json:"url"`
}

// AvatarsResponse lists stock profile pictures.
type AvatarsResponse struct {
	URLs []string `json:"urls"`
}
