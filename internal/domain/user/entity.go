package user

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors an identity from the external identity provider.
// The economy tables reference it; it is never deleted.
type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
