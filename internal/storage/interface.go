package storage

import (
	"context"

	"github.com/mcoot/openworld/internal/model"
)

// AccountStore is the external account store the room server reads from.
// Accounts are owned by the dashboard; the server only reads them and writes back
// a child's remaining daily time.
type AccountStore interface {
	// Family operations
	SaveFamily(ctx context.Context, family *model.Family) error
	GetFamily(ctx context.Context, id string) (*model.Family, error)
	GetFamilyByParent(ctx context.Context, parentUserID string) (*model.Family, error)

	// Child operations
	SaveChild(ctx context.Context, child *model.Child) error
	GetChild(ctx context.Context, id string) (*model.Child, error)
	UpdateChildTimeLeft(ctx context.Context, id string, seconds int) error

	Close() error
}
