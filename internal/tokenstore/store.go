// Package tokenstore owns the token signing secret and the revocation ledger.
//
// Durable state lives behind two storage ports so the store can run against
// Postgres, an embedded badger database, or an in-memory fake in tests.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/metrics"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/token"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// SecretRepository persists the single signing secret.
type SecretRepository interface {
	GetSecret(ctx context.Context) (string, bool, error)
	// InsertSecretIfAbsent stores value only when no secret exists and returns
	// whatever is persisted afterwards. Implementations must be atomic.
	InsertSecretIfAbsent(ctx context.Context, value string) (string, error)
}

// RevocationRepository persists revoked token ids.
type RevocationRepository interface {
	// Revoke is an upsert; revoking twice is not an error.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

const (
	// MinSecretLength counts hex characters: 64 of them carry 256 bits.
	MinSecretLength = 64

	secretFlightKey = "signing-secret"

	errLoadSecretFmt      = "load signing secret: %w"
	errPersistSecretFmt   = "persist signing secret: %w"
	errGenerateSecretFmt  = "generate signing secret: %w"
	errRevokeFmt          = "revoke token %s: %w"
	errIsRevokedFmt       = "check revocation for %s: %w"
	errPurgeFmt           = "purge expired revocations: %w"
	errEmptyJTI           = "token id must not be empty"
	errSecretTooShortFmt  = "persisted signing secret is %d characters, need at least %d"
	errUnexpectedFlightTy = "unexpected singleflight result type"
)

var ErrEmptyTokenID = errors.New(errEmptyJTI)

type Option func(*Store)

// WithCache replaces the default in-process secret cache.
func WithCache(c SecretCache) Option {
	return func(s *Store) { s.cache = c }
}

// WithGenerator replaces the random secret generator.
func WithGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.generate = gen }
}

type Store struct {
	secrets     SecretRepository
	revocations RevocationRepository
	cache       SecretCache
	generate    func() (string, error)
	flight      singleflight.Group
	log         zerolog.Logger
}

func New(secrets SecretRepository, revocations RevocationRepository, opts ...Option) *Store {
	s := &Store{
		secrets:     secrets,
		revocations: revocations,
		cache:       NewMemoryCache(),
		generate:    token.GenerateSigningSecret,
		log:         logging.With("tokenstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SigningSecret returns the cached secret, loading or creating the persisted one on a miss.
// Concurrent misses within the process share one load. Across processes the storage
// insert-if-absent decides the winner and every loser reads the winner's value back.
func (s *Store) SigningSecret(ctx context.Context) ([]byte, error) {
	if secret, ok := s.cache.Get(); ok {
		return secret, nil
	}

	v, err, _ := s.flight.Do(secretFlightKey, func() (interface{}, error) {
		if secret, ok := s.cache.Get(); ok {
			return secret, nil
		}

		secret, err := s.loadOrCreate(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		s.cache.Set(secret)
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	secret, ok := v.([]byte)
	if !ok {
		return nil, errors.New(errUnexpectedFlightTy)
	}
	return secret, nil
}

func (s *Store) loadOrCreate(ctx context.Context) ([]byte, error) {
	existing, found, err := s.secrets.GetSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf(errLoadSecretFmt, err)
	}
	if found {
		return checkSecret(existing)
	}

	candidate, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf(errGenerateSecretFmt, err)
	}

	persisted, err := s.secrets.InsertSecretIfAbsent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf(errPersistSecretFmt, err)
	}

	if persisted == candidate {
		s.log.Info().Msg("generated and persisted new signing secret")
	} else {
		s.log.Info().Msg("another process created the signing secret first; using persisted value")
	}

	return checkSecret(persisted)
}

func checkSecret(secret string) ([]byte, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf(errSecretTooShortFmt, len(secret), MinSecretLength)
	}
	return []byte(secret), nil
}

// Invalidate drops the cached secret so the next call reloads it from storage.
func (s *Store) Invalidate() {
	s.cache.Invalidate()
}

func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrEmptyTokenID
	}

	if err := s.revocations.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf(errRevokeFmt, jti, err)
	}

	metrics.TokensRevoked.Inc()
	return nil
}

// IsRevoked never converts a lookup failure into an answer.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.revocations.IsRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf(errIsRevokedFmt, jti, err)
	}
	return revoked, nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.revocations.PurgeExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf(errPurgeFmt, err)
	}

	metrics.RevocationsPurged.Add(float64(n))
	return n, nil
}
