package rbac

type Role string
type Action string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
	ActionAdmin Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleClient:
		return action == ActionRead
	default:
		return false
	}
}

// CanAccess reports whether a caller may touch a resource owned by
// resourceOwnerID. Admins may access everything; clients only resources they
// own. An empty caller id always denies.
func CanAccess(callerID string, callerRole Role, resourceOwnerID string) bool {
	if callerID == "" {
		return false
	}
	if callerRole == RoleAdmin {
		return true
	}
	return callerRole == RoleClient && resourceOwnerID != "" && callerID == resourceOwnerID
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleClient, RoleAdmin:
		return Role(role)
	default:
		return RoleClient
	}
}
