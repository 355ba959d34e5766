package config

import (
	"fmt"
	"strings"
)

const (
	errRequiredEnvNotSetFmt   = "required environment variable %s is not set"
	errRequiredForSelectedFmt = "%s is required when %s=%s"
	errMustBeOneOfFmt         = "%s must be one of %s, got %q"
	errMustBePositiveFmt      = "%s must be positive"
	errMustNotBeNegativeFmt   = "%s must not be negative"
	errOutOfRangeFmt          = "%s must be between %d and %d"
)

type messageBuilders struct {
	requiredEnvNotSet   func(string) string
	requiredForSelected func(key, selector, choice string) string
	mustBeOneOf         func(key, got string, allowed ...string) string
	mustBePositive      func(string) string
	mustNotBeNegative   func(string) string
	outOfRange          func(key string, lo, hi int) string
}

func newMessageBuilders() messageBuilders {
	return messageBuilders{
		requiredEnvNotSet: func(key string) string {
			return fmt.Sprintf(errRequiredEnvNotSetFmt, key)
		},
		// requiredForSelected reports a setting that only matters for one
		// backend or driver, e.g. BADGER_DIR under TOKEN_STORE_BACKEND=badger.
		requiredForSelected: func(key, selector, choice string) string {
			return fmt.Sprintf(errRequiredForSelectedFmt, key, selector, choice)
		},
		mustBeOneOf: func(key, got string, allowed ...string) string {
			quoted := make([]string, len(allowed))
			for i, a := range allowed {
				quoted[i] = fmt.Sprintf("%q", a)
			}
			return fmt.Sprintf(errMustBeOneOfFmt, key, strings.Join(quoted, ", "), got)
		},
		mustBePositive: func(key string) string {
			return fmt.Sprintf(errMustBePositiveFmt, key)
		},
		mustNotBeNegative: func(key string) string {
			return fmt.Sprintf(errMustNotBeNegativeFmt, key)
		},
		outOfRange: func(key string, lo, hi int) string {
			return fmt.Sprintf(errOutOfRangeFmt, key, lo, hi)
		},
	}
}

var messages = newMessageBuilders()
