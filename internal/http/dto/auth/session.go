package auth

import "time"

// LogoutRequest: DeviceID vacío cierra el dispositivo del token.
type LogoutRequest struct {
	DeviceID string `json:"device_id,omitempty"`
}

type LogoutAllResponse struct {
	Sessions int `json:"sessions"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ValidateRequest: Token vacío usa el header Authorization.
type ValidateRequest struct {
	Token string `json:"token,omitempty"`
}

// ValidateResponse es el resultado de introspección de un access token.
type ValidateResponse struct {
	Active   bool   `json:"active"`
	Sub      string `json:"sub,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	Org      string `json:"org,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
}

type MeResponse struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	BranchID       *string  `json:"branch_id,omitempty"`
	RoleID         *string  `json:"role_id,omitempty"`
	Username       string   `json:"username"`
	Email          string   `json:"email,omitempty"`
	Name           string   `json:"name,omitempty"`
	DeviceID       string   `json:"device_id"`
	Permissions    []string `json:"permissions"`
}

type DeviceResponse struct {
	DeviceID   string    `json:"device_id"`
	Current    bool      `json:"current"`
	UserAgent  string    `json:"user_agent,omitempty"`
	IP         string    `json:"ip,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
