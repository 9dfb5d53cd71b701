package domain

type ProfileKind string

const (
	ProfileUser  ProfileKind = "user"
	ProfileAdmin ProfileKind = "admin"
)

// Profile is the current-user slot: exactly one of User or Admin is set,
// according to Kind.
type Profile struct {
	Kind  ProfileKind `json:"kind"`
	User  *User       `json:"user,omitempty"`
	Admin *AdminUser  `json:"admin,omitempty"`
}

func UserProfile(u *User) *Profile {
	return &Profile{Kind: ProfileUser, User: u}
}

func AdminProfile(a *AdminUser) *Profile {
	return &Profile{Kind: ProfileAdmin, Admin: a}
}

// Id returns the id of whichever account the profile holds, or 0.
func (p *Profile) Id() UserId {
	switch {
	case p == nil:
		return 0
	case p.User != nil:
		return p.User.Id
	case p.Admin != nil:
		return p.Admin.Id
	}
	return 0
}

func (p *Profile) Email() string {
	switch {
	case p == nil:
		return ""
	case p.User != nil:
		return p.User.Email
	case p.Admin != nil:
		return p.Admin.Email
	}
	return ""
}
