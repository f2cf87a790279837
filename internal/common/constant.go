package common

import "strings"

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer token.
const AuthorizationHeaderName = "authorization"

// TokenType is reported to clients next to every issued token.
const TokenType = "Bearer"

const bearerPrefix = TokenType + " "

// StripBearerPrefix removes a leading "Bearer " from an Authorization value.
// Bare tokens are returned unchanged.
func StripBearerPrefix(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, TokenType) {
		return ""
	}
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return header
}
