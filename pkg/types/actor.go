package types

import (
	"github.com/google/uuid"

	"github.com/hoangdh1/eCommerce/pkg/enums"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

func (a Actor) Is(role enums.ActorRole) bool {
	return a.Role == role
}
