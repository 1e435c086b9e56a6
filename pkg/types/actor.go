package types

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
)

// Actor is the authenticated principal behind a request. Identity management
// lives outside this service; only the id and role ever reach the domain layer.
type Actor struct {
	ID   uuid.UUID
	Role enums.MemberRole
}

// CanManagePurchases reports whether the actor may create or edit purchases.
func (a Actor) CanManagePurchases() bool {
	return a.Role == enums.MemberRoleAdmin || a.Role == enums.MemberRoleManager
}

// CanDeletePurchases reports whether the actor may delete purchases.
func (a Actor) CanDeletePurchases() bool {
	return a.Role == enums.MemberRoleAdmin
}

// CanManageExpenses reports whether the actor may record or edit expenses.
func (a Actor) CanManageExpenses() bool {
	return a.Role == enums.MemberRoleAdmin || a.Role == enums.MemberRoleManager
}

// CanDeleteExpenses reports whether the actor may delete expenses.
func (a Actor) CanDeleteExpenses() bool {
	return a.Role == enums.MemberRoleAdmin
}
