package customer

import (
	"time"

	"github.com/google/uuid"
)

// Customer belongs to exactly one tenant. Phone is stored in canonical
// E.164 digits (no "+") and is the key payer-matching index; the directory
// itself is maintained by the administration surface, the engine only reads.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
