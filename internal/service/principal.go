package service

import "github.com/Skotchmaster/online_restaurant/internal/models"

// Principal is the caller identity resolved by the auth middleware. The zero
// value is an anonymous visitor.
type Principal struct {
	UserID   uint
	Nickname string
	Role     string
}

func PrincipalOf(u *models.User) Principal {
	return Principal{UserID: u.ID, Nickname: u.Nickname, Role: u.Role}
}

func (p Principal) Authenticated() bool { return p.UserID != 0 }

func (p Principal) IsAdmin() bool { return p.Authenticated() && p.Role == models.RoleAdmin }

func EnsureAuthenticated(p Principal) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func EnsureAdmin(p Principal) error {
	if err := EnsureAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
