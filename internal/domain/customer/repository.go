package customer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines customer directory lookups
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// GetByPhoneVariants finds the customer owning ANY of the given phone
	// representations. Historical rows may hold unnormalized numbers, so
	// the caller passes every variant the normalizer produced.
	GetByPhoneVariants(ctx context.Context, variants []string) (*Customer, error)
}

// ErrCustomerNotFound indicates no customer matched the lookup
type ErrCustomerNotFound struct {
	CustomerID uuid.UUID
	Phone      string
}

func (e ErrCustomerNotFound) Error() string {
	if e.Phone != "" {
		return "customer not found for phone: " + e.Phone
	}
	return "customer not found: " + e.CustomerID.String()
}

// Is matches any ErrCustomerNotFound when the target is empty.
func (e ErrCustomerNotFound) Is(target error) bool {
	t, ok := target.(ErrCustomerNotFound)
	if !ok {
		return false
	}
	if t.CustomerID == uuid.Nil && t.Phone == "" {
		return true
	}
	return e == t
}
