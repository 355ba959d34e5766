package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/metrics"

	"github.com/google/uuid"
)

// RevocationChecker answers whether a token id is in the revocation ledger.
// A lookup failure must be returned as an error, never as an answer.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Reason explains why a credential was rejected.
type Reason int

const (
	NoCredential Reason = iota + 1
	InvalidOrExpired
	Revoked
	VerificationUnavailable
)

var (
	ErrNoCredential            = errors.New("auth: no credential")
	ErrInvalidOrExpired        = errors.New("auth: invalid or expired token")
	ErrRevoked                 = errors.New("auth: token revoked")
	ErrVerificationUnavailable = errors.New("auth: verification unavailable")
)

func (r Reason) sentinel() error {
	switch r {
	case NoCredential:
		return ErrNoCredential
	case InvalidOrExpired:
		return ErrInvalidOrExpired
	case Revoked:
		return ErrRevoked
	default:
		return ErrVerificationUnavailable
	}
}

func (r Reason) outcome() string {
	switch r {
	case NoCredential:
		return metrics.OutcomeNoCredential
	case InvalidOrExpired:
		return metrics.OutcomeInvalid
	case Revoked:
		return metrics.OutcomeRevoked
	default:
		return metrics.OutcomeUnavailable
	}
}

func (r Reason) String() string {
	return r.outcome()
}

// Rejection is the terminal failure of a verification. Err carries the internal
// cause for logging and must not be shown to clients.
type Rejection struct {
	Reason Reason
	Err    error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%v: %v", r.Reason.sentinel(), r.Err)
	}
	return r.Reason.sentinel().Error()
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func (r *Rejection) Is(target error) bool {
	return target == r.Reason.sentinel()
}

func reject(reason Reason, err error) *Rejection {
	return &Rejection{Reason: reason, Err: err}
}

// Verifier turns a bearer credential into a Principal or a Rejection.
type Verifier struct {
	secrets     SecretSource
	revocations RevocationChecker
	now         func() time.Time
}

func NewVerifier(secrets SecretSource, revocations RevocationChecker) *Verifier {
	return &Verifier{
		secrets:     secrets,
		revocations: revocations,
		now:         time.Now,
	}
}

// Verify runs the checks in order and stops at the first failure. There are no retries.
func (v *Verifier) Verify(ctx context.Context, credential string) (*Principal, error) {
	p, err := v.verify(ctx, credential)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			metrics.AuthVerifications.WithLabelValues(rej.Reason.outcome()).Inc()
		}
		return nil, err
	}

	metrics.AuthVerifications.WithLabelValues(metrics.OutcomeAuthenticated).Inc()
	return p, nil
}

func (v *Verifier) verify(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, reject(NoCredential, nil)
	}

	secret, err := v.secrets.SigningSecret(ctx)
	if err != nil {
		return nil, reject(VerificationUnavailable, fmt.Errorf(msgSigningSecretFmt, err))
	}

	claims, err := parseToken(credential, secret, v.now)
	if err != nil {
		return nil, reject(InvalidOrExpired, err)
	}

	if claims.ID == "" {
		return nil, reject(InvalidOrExpired, errors.New(msgMissingTokenID))
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, reject(InvalidOrExpired, fmt.Errorf(msgInvalidSubject, err))
	}

	revoked, err := v.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, reject(VerificationUnavailable, fmt.Errorf(msgRevocationLookupFmt, err))
	}
	if revoked {
		return nil, reject(Revoked, nil)
	}

	return principalFromClaims(ctx, userID, claims), nil
}

func principalFromClaims(ctx context.Context, userID uuid.UUID, claims *Claims) *Principal {
	grants, errs := ParseGrants(claims.Permissions)
	for _, err := range errs {
		logging.Ctx(ctx).Warn().Err(err).Str("jti", claims.ID).Msg(msgDroppedGrant)
	}

	p := &Principal{
		ID:       userID,
		Username: claims.Username,
		IsRoot:   claims.IsRoot,
		Grants:   grants,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.TokenExpiresAt = claims.ExpiresAt.Time
	}
	return p
}
