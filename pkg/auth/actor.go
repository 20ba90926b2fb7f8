package auth

import "github.com/angelmondragon/teahouse-backend/pkg/enums"

// Capability names one action an actor may take. Lifecycle operations
// check capabilities centrally instead of scattering role string
// comparisons across views.
type Capability string

const (
	CapCancelOwnOrder Capability = "order.cancel_own"
	CapCancelAnyOrder Capability = "order.cancel_any"
	CapAdvanceOrder   Capability = "order.advance"
	CapArchiveOrder   Capability = "order.archive"
	CapViewAllOrders  Capability = "order.view_all"
	CapManageCatalog  Capability = "catalog.manage"
	CapManageConfig   Capability = "config.manage"
)

var roleCapabilities = map[enums.ActorRole][]Capability{
	enums.ActorRoleCustomer: {
		CapCancelOwnOrder,
	},
	enums.ActorRoleAdmin: {
		CapCancelOwnOrder,
		CapCancelAnyOrder,
		CapAdvanceOrder,
		CapArchiveOrder,
		CapViewAllOrders,
		CapManageCatalog,
		CapManageConfig,
	},
}

// Actor identifies whoever triggers an operation. Guests carry only a
// session id; registered users carry their email as well.
type Actor struct {
	Email     string
	Name      string
	SessionID string
	Role      enums.ActorRole
}

// Can reports whether the actor's role grants the capability.
func (a Actor) Can(capability Capability) bool {
	for _, granted := range roleCapabilities[a.Role] {
		if granted == capability {
			return true
		}
	}
	return false
}

// IsGuest reports whether the actor has no registered identity.
func (a Actor) IsGuest() bool {
	return a.Email == ""
}

// Customer builds a registered customer actor.
func Customer(email, sessionID string) Actor {
	return Actor{Email: email, SessionID: sessionID, Role: enums.ActorRoleCustomer}
}

// Admin builds an admin actor.
func Admin(email string) Actor {
	return Actor{Email: email, Role: enums.ActorRoleAdmin}
}

// Guest builds an anonymous actor scoped to its originating session.
func Guest(sessionID string) Actor {
	return Actor{SessionID: sessionID, Role: enums.ActorRoleCustomer}
}
