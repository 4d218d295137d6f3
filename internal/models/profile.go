package models

// Profile is the public record kept for each user under users/{uid}.
type Profile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
