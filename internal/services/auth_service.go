package services

import (
	"crypto/subtle"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthService checks the single configured credential pair and decides
// whether a stored session is still valid.
type AuthService struct {
	username     string
	passwordHash []byte
	maxAge       time.Duration
	now          func() time.Time
}

// NewAuthService creates a new AuthService. When passwordHash is empty the
// plain password is hashed once here so that every comparison goes through bcrypt.
func NewAuthService(username, password, passwordHash string, maxAge time.Duration) (*AuthService, error) {
	if username == "" || (password == "" && passwordHash == "") {
		return nil, ErrAuthNotConfigured
	}

	hash := []byte(passwordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	return &AuthService{
		username:     username,
		passwordHash: hash,
		maxAge:       maxAge,
		now:          time.Now,
	}, nil
}

// Authenticate verifies a submitted username/password pair.
func (s *AuthService) Authenticate(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Username returns the identity sessions are bound to.
func (s *AuthService) Username() string {
	return s.username
}

// IssuedAt returns the issuance timestamp to store in a new session.
func (s *AuthService) IssuedAt() int64 {
	return s.now().Unix()
}

// ValidSession reports whether the values read from a session belong to the
// configured identity and were issued less than maxAge ago.
func (s *AuthService) ValidSession(username, issuedAt interface{}) bool {
	name, ok := username.(string)
	if !ok || subtle.ConstantTimeCompare([]byte(name), []byte(s.username)) != 1 {
		return false
	}

	issued, ok := issuedAt.(int64)
	if !ok {
		return false
	}
	age := s.now().Sub(time.Unix(issued, 0))
	return age >= 0 && age < s.maxAge
}
