package store

import (
	"golang.org/x/crypto/bcrypt"
)

var sampleUsers = []struct {
	username string
	name     string
}{
	{"ali", "Ali Valiyev"},
	{"botir", "Botir Jo'rayev"},
	{"dilshod", "Dilshod Rahimov"},
}

// Seed creates a few sample accounts (password "123") when the user
// collection is empty, so a fresh install has someone to talk to.
func Seed(repo Repository) error {
	users, err := repo.ListUsers()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for _, su := range sampleUsers {
		_, err := repo.CreateUser(User{
			Username:     su.username,
			PasswordHash: string(hash),
			Name:         su.name,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
