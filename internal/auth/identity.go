package auth

import "crypto/subtle"

// Identity is the single pre-shared service account accepted by the gateway.
type Identity struct {
	Username string
	Password string
}

// Matches reports whether username and password equal the identity exactly.
// Both fields are always compared so timing does not reveal which one failed.
func (i Identity) Matches(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(i.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(i.Password)) == 1
	return userOK && passOK
}
