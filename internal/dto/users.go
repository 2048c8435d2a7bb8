package dto

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
}

// AdminProbeResponse answers GET /users/admin/{email}
type AdminProbeResponse struct {
	Admin   bool `json:"admin"`
	Premium bool `json:"premium"`
}

// RoleUpdateRequest is the body of PUT /users/role/{id}. Role is "admin"
// or "" (no role); an absent role means admin.
type RoleUpdateRequest struct {
	Role *string `json:"role"`
}
