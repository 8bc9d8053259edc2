package models

// ActorType distinguishes what kind of principal performs an operation.
type ActorType string

const (
	ActorTypeUser     ActorType = "user"
	ActorTypeIdentity ActorType = "identity"
)

// ActorContext carries the identity and organizational scope under which an
// operation is authorized. It is reconstructed from the request credentials
// on every call and is never cached or persisted.
//
// OrgID is the organization the operation targets; ActorOrgID is the
// organization baked into the actor's credential. The permission check
// requires both to agree.
type ActorContext struct {
	Type       ActorType
	ID         string
	OrgID      string
	AuthMethod string
	ActorOrgID string
}
