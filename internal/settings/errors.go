package settings

import (
	"errors"
	"fmt"

	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
)

const (
	errUnsupportedTypeFmt = "unsupported settings value type %T"
	errParseValueFmt      = "parse settings value: %w"
	errInvalidPathFmt     = "invalid settings path %q"
	errInvalidScopeFmt    = "invalid settings scope: %s %q"
	errFetchFragmentsFmt  = "fetch settings fragments: %w"
	errFetchFragmentFmt   = "fetch settings fragment %s: %w"
	errStoreFragmentFmt   = "store settings fragment %s: %w"
	errDeleteFragmentFmt  = "delete settings fragment %s: %w"
	errListFragmentsFmt   = "list settings under %s: %w"
)

var (
	// ErrInvalidPath is returned for paths that are not well-formed ltree labels.
	ErrInvalidPath = errors.New("invalid settings path")
	// ErrInvalidScope is returned when an app or user id cannot form a label.
	ErrInvalidScope = errors.New("invalid settings scope")
)

func invalidPath(path string) error {
	return validationError(fmt.Sprintf(errInvalidPathFmt, path), ErrInvalidPath)
}

func invalidScope(field, id string) error {
	return validationError(fmt.Sprintf(errInvalidScopeFmt, field, id), ErrInvalidScope)
}

func validationError(msg string, cause error) error {
	return &apperrors.AppError{
		Code:    "VALIDATION",
		Message: msg,
		Err:     errors.Join(apperrors.ErrValidation, cause),
	}
}
