package domain

type ActorRole string

const (
	ActorRoleUser   ActorRole = "USER"
	ActorRoleAdmin  ActorRole = "ADMIN"
	ActorRoleSystem ActorRole = "SYSTEM"
)

// Actor is the already-authenticated identity performing an operation.
type Actor struct {
	UserID string    `json:"user_id"`
	Role   ActorRole `json:"role"`
}

// SystemActor is used for transitions driven by gateway webhooks, scheduled
// jobs and damage escalation.
var SystemActor = Actor{UserID: "system", Role: ActorRoleSystem}

func (a Actor) IsPrivileged() bool {
	return a.Role == ActorRoleAdmin || a.Role == ActorRoleSystem
}
