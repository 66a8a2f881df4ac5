package models

import "time"

// Role distinguishes the two participant namespaces. Ids are only
// unique within a role, so a role tag travels with every reference.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParticipantRef identifies a participant within its role namespace.
type ParticipantRef struct {
	ID   string `db:"participant_id" json:"id"`
	Role Role   `db:"participant_role" json:"role"`
}

// Key returns the canonical "role:id" form used for map keys and pair keys.
func (p ParticipantRef) Key() string {
	return string(p.Role) + ":" + p.ID
}

// Participant is a directory entry, used to validate message receivers
// and to enrich responses with profile data.
type Participant struct {
	ID          string    `db:"id" json:"id"`
	Role        Role      `db:"role" json:"role"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Ref returns the participant's reference.
func (p Participant) Ref() ParticipantRef {
	return ParticipantRef{ID: p.ID, Role: p.Role}
}

// Identity is the resolved authenticated participant bound to a
// connection or request.
type Identity struct {
	ParticipantRef
	Username string `json:"username"`
}
