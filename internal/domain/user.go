package domain

type Role string

const (
	RoleSeeker    Role = "seeker"
	RoleTherapist Role = "therapist"
)

// User is owned by the identity collaborator; the chat core only reads it.
type User struct {
	ID          string `db:"id"`
	DisplayName string `db:"display_name"`
	Role        Role   `db:"role"`
}
