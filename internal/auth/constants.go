package auth

const (
	ContextKeyPrincipal = "principal"

	headerAuthorization = "Authorization"
	queryParamToken     = "token"

	bearerScheme    = "bearer"
	authHeaderParts = 2
)

const (
	msgUnauthorized            = "unauthorized"
	msgForbidden               = "forbidden"
	msgServiceUnavailable      = "authentication temporarily unavailable"
	msgMalformedGrantFmt       = "malformed permission %q: expected action:resource"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
	msgMissingTokenID          = "token has no jti"
	msgInvalidSubject          = "token subject is not a user id: %w"
	msgSigningSecretFmt        = "failed to obtain signing secret: %w"
	msgSignTokenFmt            = "failed to sign token: %w"
	msgRevocationLookupFmt     = "revocation lookup failed: %w"
	msgDroppedGrant            = "dropping malformed permission from token claims"
)
