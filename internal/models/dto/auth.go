package dto

import "github.com/agrilinkchain/agrilink/internal/models"

type SignUpRequest struct {
	Role            string `json:"role"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ReferralCode    string `json:"referral_code"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Redirect string      `json:"redirect"`
	Role     models.Role `json:"role,omitempty"`
}

type SignUpResponse struct {
	Redirect     string `json:"redirect"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type SessionResponse struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Home   string      `json:"home"`
}
