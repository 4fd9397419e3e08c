package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password at the given bcrypt cost.
// Cost comes from AUTH_BCRYPT_COST; a zero or out-of-range value
// falls back to the library default so a blank config still yields a
// usable hash.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a plaintext password against a stored
// hash. Hashes created at any cost verify, so lowering the configured
// cost never invalidates existing credentials.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
