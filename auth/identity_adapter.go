package auth

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// Identifier returns the user's email.
func (u UserIdentity) Identifier() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// DisplayName returns the user's name.
func (u UserIdentity) DisplayName() string {
	if u.user == nil {
		return ""
	}
	return u.user.Name
}
