package models

import "time"

// Profile captures application-facing fields for an identity.
type Profile struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Location      string    `json:"location"`
	Bio           string    `json:"bio"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Role          Role      `json:"role"`
	Verified      bool      `json:"verified"`
	ReferralCode  string    `json:"referral_code,omitempty"`
	ReferredBy    string    `json:"referred_by,omitempty"`
	TotalEarnings float64   `json:"total_earnings"`
	CreditScore   int       `json:"credit_score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// DisplayName falls back to the email when no name was saved.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

// Counterpart is the denormalized slice of a profile pulled in by a relational expansion.
type Counterpart struct {
	FullName  string `json:"full_name"`
	Location  string `json:"location,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
