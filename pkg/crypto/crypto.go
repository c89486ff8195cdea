package crypto

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

// HashKey hashes an admin API key with bcrypt, for generating the value of
// admin.key_hash in config.
func HashKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	return string(bytes), err
}

// CheckKey compares a presented admin key against its bcrypt hash.
func CheckKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
