package card

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CreateCardRequest for POST /cards
type CreateCardRequest struct {
	Title         string          `json:"title" validate:"required,max=120"`
	Description   string          `json:"description" validate:"max=2000"`
	FrontImage    string          `json:"front_image" validate:"required,max=1024"`
	BackImage     string          `json:"back_image" validate:"omitempty,max=1024"`
	ImagePosition *ImagePosition  `json:"image_position" validate:"omitempty"`
	CardLayout    string          `json:"card_layout" validate:"omitempty,card_layout"`
	Discipline    string          `json:"discipline" validate:"omitempty,discipline"`
	Rarity        string          `json:"rarity" validate:"required,rarity"`
	CardStyle     string          `json:"card_style" validate:"omitempty,card_style"`
	CardType      string          `json:"card_type" validate:"omitempty,oneof=custom official"`
	EditionType   string          `json:"edition_type" validate:"required,edition_type"`
	EditionSize   *int            `json:"edition_size" validate:"required_if=EditionType limited,omitempty,gt=0"`
	ExpiresAt     *time.Time      `json:"expires_at" validate:"required_if=EditionType timed"`
	BasePrice     decimal.Decimal `json:"base_price"`
}

// normalize trims text and lower-cases enum fields so tag checks and
// required_if see canonical values.
func (r *CreateCardRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.FrontImage = strings.TrimSpace(r.FrontImage)
	r.BackImage = strings.TrimSpace(r.BackImage)
	r.CardLayout = strings.ToLower(strings.TrimSpace(r.CardLayout))
	r.Discipline = strings.ToLower(strings.TrimSpace(r.Discipline))
	r.CardStyle = strings.ToLower(strings.TrimSpace(r.CardStyle))
	r.CardType = strings.ToLower(strings.TrimSpace(r.CardType))
	r.EditionType = strings.ToLower(strings.TrimSpace(r.EditionType))
}

func (r *CreateCardRequest) positionOrDefault() ImagePosition {
	if r.ImagePosition == nil {
		return ImagePosition{X: 50, Y: 50}
	}
	return *r.ImagePosition
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
