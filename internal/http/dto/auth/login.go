// Package auth contiene DTOs para endpoints de autenticación.
package auth

// LoginRequest representa la solicitud de login por password.
// LoginID acepta username, user_id numérico o email.
type LoginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
	DeviceID string `json:"device_id,omitempty"`
}

// LoginResponse representa la respuesta exitosa de login.
// El refresh token viaja solo en la cookie HTTP-only.
type LoginResponse struct {
	AccessToken         string   `json:"access_token"`
	TokenType           string   `json:"token_type"` // "Bearer"
	ExpiresIn           int64    `json:"expires_in"` // segundos
	DeviceID            string   `json:"device_id"`
	ForcePasswordChange bool     `json:"force_password_change"`
	Permissions         []string `json:"permissions"`
}
