// Package auth implements the credential and token collaborators consumed by
// the use-case handlers.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// CredentialService hashes and verifies passwords. The bcrypt output folds
// the salt into the hash string.
type CredentialService struct {
	cost int
}

func NewCredentialService(cost int) *CredentialService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{cost: cost}
}

func (s *CredentialService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *CredentialService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
