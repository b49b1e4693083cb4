package rbac

type Role string
type Action string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

const (
	ActionAsk      Action = "ask"
	ActionEditAny  Action = "edit_any"
	ActionModerate Action = "moderate"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleModerator:
		return action == ActionAsk || action == ActionEditAny || action == ActionModerate
	case RoleUser:
		return action == ActionAsk
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(role)
	default:
		return RoleUser
	}
}
