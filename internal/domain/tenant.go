package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Tenant is the resolved company scope every core operation runs under.
// It is passed explicitly instead of being read from session state.
type Tenant struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
}

// Validate returns ErrUnauthorized when the tenant has no company.
func (t Tenant) Validate() error {
	if t.CompanyID == uuid.Nil {
		return fmt.Errorf("%w: no company scope", ErrUnauthorized)
	}
	return nil
}
