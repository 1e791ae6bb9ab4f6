package auth

// RefreshRequest es el body de POST /v2/auth/refresh. RefreshToken es el
// fallback cuando no hay cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`
}

// RefreshResponse es la respuesta de una rotación exitosa.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	DeviceID    string `json:"device_id"`
}
