package api

import "github.com/itchan-dev/strapikit/shared/domain"

// Request DTOs

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Code                 string `json:"code" validate:"required"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword      string `json:"currentPassword" validate:"required"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
}

type EmailConfirmationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RenewTokenRequest struct {
	Token string `json:"token"`
}

// Response DTOs

// AuthenticationResponse is returned by auth/local, auth/local/register,
// auth/reset-password and auth/{provider}/callback.
type AuthenticationResponse struct {
	Jwt  string       `json:"jwt" validate:"required"`
	User *domain.User `json:"user,omitempty"`
}

type AdminAuthenticationResponse struct {
	Data struct {
		Token string            `json:"token" validate:"required"`
		User  *domain.AdminUser `json:"user,omitempty"`
	} `json:"data"`
}

type RenewTokenResponse struct {
	Data struct {
		Token string `json:"token" validate:"required"`
	} `json:"data"`
}

// AuthProvider names a third-party login provider configured in the CMS.
type AuthProvider = string

const (
	ProviderGithub    AuthProvider = "github"
	ProviderGoogle    AuthProvider = "google"
	ProviderFacebook  AuthProvider = "facebook"
	ProviderDiscord   AuthProvider = "discord"
	ProviderMicrosoft AuthProvider = "microsoft"
	ProviderAuth0     AuthProvider = "auth0"
)

// AdminUserResponse is returned by admin/users/me.
type AdminUserResponse struct {
	Data *domain.AdminUser `json:"data" validate:"required"`
}
