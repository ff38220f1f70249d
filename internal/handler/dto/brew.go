package dto

import (
	"time"

	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

// BrewRequest is the body of brew create and update calls.
// Updates replace every editable field.
type BrewRequest struct {
	Title        string      `json:"title"`
	Method       string      `json:"method"`
	CoffeeAmount string      `json:"coffee_amount"`
	WaterAmount  string      `json:"water_amount"`
	BrewTime     string      `json:"brew_time"`
	GrindSize    string      `json:"grind_size"`
	Notes        string      `json:"notes,omitempty"`
	ImageURL     string      `json:"image_url,omitempty"`
	BagID        *string     `json:"bag_id,omitempty"`
	NewBag       *BagRequest `json:"new_bag,omitempty"`
}

// ToInput converts the request to a service input.
func (r *BrewRequest) ToInput() service.BrewInput {
	input := service.BrewInput{
		Title:        r.Title,
		Method:       r.Method,
		CoffeeAmount: r.CoffeeAmount,
		WaterAmount:  r.WaterAmount,
		BrewTime:     r.BrewTime,
		GrindSize:    r.GrindSize,
		Notes:        r.Notes,
		ImageURL:     r.ImageURL,
		BagID:        r.BagID,
	}
	if r.NewBag != nil {
		bag := r.NewBag.ToInput()
		input.NewBag = &bag
	}
	return input
}

// BrewResponse is a brew in API responses.
type BrewResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Method       string    `json:"method"`
	CoffeeAmount string    `json:"coffee_amount"`
	WaterAmount  string    `json:"water_amount"`
	BrewTime     string    `json:"brew_time"`
	GrindSize    string    `json:"grind_size"`
	Notes        string    `json:"notes,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatorID    string    `json:"creator_id"`
	CreatorName  string    `json:"creator_name"`
	SaveCount    int       `json:"save_count"`
	BagID        *string   `json:"bag_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToBrewResponse converts a Brew model.
func ToBrewResponse(b *model.Brew) BrewResponse {
	return BrewResponse{
		ID:           b.ID,
		Title:        b.Title,
		Method:       b.Method,
		CoffeeAmount: b.CoffeeAmount,
		WaterAmount:  b.WaterAmount,
		BrewTime:     b.BrewTime,
		GrindSize:    b.GrindSize,
		Notes:        b.Notes,
		ImageURL:     b.ImageURL,
		CreatorID:    b.CreatorID,
		CreatorName:  b.CreatorName,
		SaveCount:    b.SaveCount,
		BagID:        b.BagID,
		CreatedAt:    b.CreatedAt,
	}
}

// ToBrewResponses converts a slice of Brew models.
func ToBrewResponses(brews []*model.Brew) []BrewResponse {
	out := make([]BrewResponse, len(brews))
	for i, b := range brews {
		out[i] = ToBrewResponse(b)
	}
	return out
}
