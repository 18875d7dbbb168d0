package dto

import "github.com/Temutjin2k/tracker-admin/pkg/validator"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func ValidateLogin(v *validator.Validator, req *LoginRequest) {
	v.Check(req.Username != "", "username", "must be provided")
	v.Check(req.Password != "", "password", "must be provided")
}

func ValidateRefreshToken(v *validator.Validator, req *RefreshTokenRequest) {
	v.Check(req.RefreshToken != "", "refresh_token", "must be provided")
}

// WebSocketAuth is the first message a live dashboard client must send.
type WebSocketAuth struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}
