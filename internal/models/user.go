package models

import "SOULKNOT_BACK-END/internal/store"

// Roles
const (
	RoleNone  = ""
	RoleAdmin = "admin"
)

// Membership tiers
const (
	MemberStandard = "standard"
	MemberPremium  = "premium"
)

// User is an account keyed by email
type User struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Photo      string `json:"photo,omitempty"`
	Role       string `json:"role,omitempty"`
	MemberType string `json:"memberType"`
	CreatedAt  string `json:"createdAt"`
}

// Document converts u into its stored form
func (u User) Document() store.Document {
	doc := store.Document{
		"email":      u.Email,
		"memberType": u.MemberType,
		"createdAt":  u.CreatedAt,
	}
	if u.Name != "" {
		doc["name"] = u.Name
	}
	if u.Photo != "" {
		doc["photo"] = u.Photo
	}
	if u.Role != RoleNone {
		doc["role"] = u.Role
	}
	return doc
}

// IsPremium reports whether a stored user or biodata document is premium
func IsPremium(doc store.Document) bool {
	return doc.String("memberType") == MemberPremium
}

// MemberTypeOf returns the tier of a stored document, standard by default
func MemberTypeOf(doc store.Document) string {
	if IsPremium(doc) {
		return MemberPremium
	}
	return MemberStandard
}
