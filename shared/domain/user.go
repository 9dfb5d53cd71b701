package domain

import "time"

type UserId = int64

// User is a users-permissions (end-user) account as returned by users/me.
type User struct {
	Id        UserId    `json:"id" validate:"required"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider,omitempty"`
	Confirmed bool      `json:"confirmed"`
	Blocked   bool      `json:"blocked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AdminUser is an admin panel account as returned by admin/users/me.
type AdminUser struct {
	Id                UserId      `json:"id" validate:"required"`
	Firstname         string      `json:"firstname"`
	Lastname          string      `json:"lastname,omitempty"`
	Username          string      `json:"username,omitempty"`
	Email             string      `json:"email"`
	IsActive          bool        `json:"isActive"`
	Blocked           bool        `json:"blocked"`
	PreferedLanguage  string      `json:"preferedLanguage,omitempty"`
	Roles             []AdminRole `json:"roles,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
	RegistrationToken *string     `json:"registrationToken,omitempty"`
}

type AdminRole struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}
