package model

import "strings"

// User is the cached profile of the signed-in account.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Role    string `json:"role,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// Admin reports whether the profile grants admin console access.
func (u *User) Admin() bool {
	return u != nil && (u.IsAdmin || strings.EqualFold(u.Role, "admin"))
}

// RegisterForm is the sign-up page payload.
type RegisterForm struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginForm is the sign-in page payload.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileForm updates the signed-in user's profile.
type ProfileForm struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// PasswordForm changes the signed-in user's password.
type PasswordForm struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// PaymentConfig is the storefront payment configuration. The admin view
// carries merchant credentials that the public view omits.
type PaymentConfig struct {
	CODEnabled     bool   `json:"cod_enabled"`
	BkashEnabled   bool   `json:"bkash_enabled"`
	BkashNumber    string `json:"bkash_number,omitempty"`
	CardEnabled    bool   `json:"card_enabled"`
	DeliveryCharge Money  `json:"delivery_charge"`
	MerchantKey    string `json:"merchant_key,omitempty"`
	MerchantSecret string `json:"merchant_secret,omitempty"`
}

// LoginResult is what a successful login yields. User is nil when the backend
// does not embed the profile in the login response.
type LoginResult struct {
	Token string
	User  *User
}
