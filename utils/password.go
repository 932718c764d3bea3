package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of the password using a cost that balances security and performance.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares the bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BcryptHasher adapts the bcrypt helpers to the workflow service's
// PasswordHasher contract.
type BcryptHasher struct{}

func (BcryptHasher) Hash(plain string) (string, error) { return HashPassword(plain) }
func (BcryptHasher) Verify(hash, plain string) bool    { return CheckPassword(hash, plain) }
