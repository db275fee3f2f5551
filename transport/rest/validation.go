package rest

import "regexp"

var gameIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	minWalletLen = 32
	maxWalletLen = 44

	minGameIDLen = 3
	maxGameIDLen = 50
)

// ValidateWalletAddress accepts base58-encoded wallet addresses by length
// only; full on-chain validation belongs to the chain client.
func ValidateWalletAddress(address string) bool {
	return len(address) >= minWalletLen && len(address) <= maxWalletLen
}

func ValidateGameID(id string) bool {
	return len(id) >= minGameIDLen && len(id) <= maxGameIDLen && gameIDPattern.MatchString(id)
}
