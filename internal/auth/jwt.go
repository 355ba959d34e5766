package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/metrics"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SecretSource supplies the current HS256 signing secret.
type SecretSource interface {
	SigningSecret(ctx context.Context) ([]byte, error)
}

type Claims struct {
	Username    string   `json:"username"`
	IsRoot      bool     `json:"is_root"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type IssueInput struct {
	UserID      uuid.UUID
	Username    string
	IsRoot      bool
	Permissions []string
}

type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Issuer signs tokens with the secret held by the token store.
type Issuer struct {
	secrets SecretSource
	expiry  time.Duration
	now     func() time.Time
}

func NewIssuer(secrets SecretSource, expiry time.Duration) *Issuer {
	return &Issuer{
		secrets: secrets,
		expiry:  expiry,
		now:     time.Now,
	}
}

func (i *Issuer) Issue(ctx context.Context, in IssueInput) (*IssuedToken, error) {
	secret, err := i.secrets.SigningSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf(msgSigningSecretFmt, err)
	}

	now := i.now()
	expiresAt := now.Add(i.expiry)
	jti := uuid.NewString()

	permissions := in.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	claims := Claims{
		Username:    in.Username,
		IsRoot:      in.IsRoot,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   in.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf(msgSignTokenFmt, err)
	}

	metrics.TokensIssued.Inc()

	return &IssuedToken{
		Token:     signed,
		TokenID:   jti,
		ExpiresAt: expiresAt,
	}, nil
}

// parseToken checks signature, algorithm and expiry. It does not consult the revocation ledger.
func parseToken(tokenString string, secret []byte, now func() time.Time) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf(msgUnexpectedSigningMethod, token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, fmt.Errorf(msgTokenParseFailed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf(msgInvalidTokenClaims)
	}

	return claims, nil
}
