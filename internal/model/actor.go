package model

// Actor identifies who is asking for a change. It is built once per request
// from the authenticated claims and passed down unchanged.
type Actor struct {
	ID   int64
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SystemActor is used for changes not caused by a user. It has no audit id.
var SystemActor = Actor{}

// AuditID returns the actor id to record, or nil for the system actor.
func (a Actor) AuditID() *int64 {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}
