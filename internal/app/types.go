package app

import (
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/tokenstore"
)

// tokenBackend is the storage chosen for the signing secret and the revocation ledger.
type tokenBackend struct {
	name        string
	secrets     tokenstore.SecretRepository
	revocations tokenstore.RevocationRepository
	close       func() error
}
