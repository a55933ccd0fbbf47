//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// race builds are much slower, stay at the library default
	return bcrypt.DefaultCost
}
