package validator

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
	maxPasswordLength = 128
	maxLtreeLabelLen  = 256
	maxLtreeLabels    = 64

	tagPassword   = "password"
	tagUsername   = "username"
	tagLtree      = "ltree"
	tagPermission = "permission"

	errUsernameEmptyFmt       = "username cannot be empty"
	errUsernameLengthFmt      = "username must be between %d and %d characters"
	errUsernameCharsFmt       = "username may only contain letters, digits, '.', '-' and '_'"
	errPasswordMinLengthFmt   = "password must be at least %d characters long"
	errPasswordMaxLengthFmt   = "password must not exceed %d characters"
	errPasswordNumberFmt      = "password must include at least one number"
	errPasswordSpecialFmt     = "password must include at least one special character"
	errLtreeEmptyFmt          = "path cannot be empty"
	errLtreeTooDeepFmt        = "path must not exceed %d labels"
	errLtreeLabelEmptyFmt     = "path contains an empty label"
	errLtreeLabelLengthFmt    = "path label must not exceed %d characters"
	errLtreeLabelCharsFmt     = "path label %q may only contain letters, digits and '_'"
	errPermissionFormatFmt    = "permission must have the form action:resource"
	errFieldFailedFmt         = "%s failed on %s"
	errFieldFailedWithArgsFmt = "%s failed on %s=%s"
)

var (
	usernameRegex   = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	ltreeLabelRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	specialChars    = `!@#$%^&*(),.?":{}|<>`
)

var (
	validate     *playground.Validate
	validateOnce sync.Once
)

func Username(username string) error {
	if username == "" {
		return fmt.Errorf(errUsernameEmptyFmt)
	}

	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf(errUsernameLengthFmt, minUsernameLength, maxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf(errUsernameCharsFmt)
	}

	return nil
}

func Password(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf(errPasswordMinLengthFmt, minPasswordLength)
	}

	if len(password) > maxPasswordLength {
		return fmt.Errorf(errPasswordMaxLengthFmt, maxPasswordLength)
	}

	if !strings.ContainsAny(password, "0123456789") {
		return fmt.Errorf(errPasswordNumberFmt)
	}

	if !strings.ContainsAny(password, specialChars) {
		return fmt.Errorf(errPasswordSpecialFmt)
	}

	return nil
}

// LtreePath validates dot separated ltree label syntax.
func LtreePath(path string) error {
	if path == "" {
		return fmt.Errorf(errLtreeEmptyFmt)
	}

	labels := strings.Split(path, ".")
	if len(labels) > maxLtreeLabels {
		return fmt.Errorf(errLtreeTooDeepFmt, maxLtreeLabels)
	}

	for _, label := range labels {
		if label == "" {
			return fmt.Errorf(errLtreeLabelEmptyFmt)
		}
		if len(label) > maxLtreeLabelLen {
			return fmt.Errorf(errLtreeLabelLengthFmt, maxLtreeLabelLen)
		}
		if !ltreeLabelRegex.MatchString(label) {
			return fmt.Errorf(errLtreeLabelCharsFmt, label)
		}
	}

	return nil
}

// PermissionName checks the action:resource shape without interpreting it.
func PermissionName(name string) error {
	action, resource, ok := strings.Cut(name, ":")
	if !ok || action == "" || resource == "" || strings.Contains(resource, ":") {
		return fmt.Errorf(errPermissionFormatFmt)
	}
	return nil
}

func get() *playground.Validate {
	validateOnce.Do(func() {
		validate = playground.New(playground.WithRequiredStructEnabled())
		_ = validate.RegisterValidation(tagPassword, fieldRule(Password))
		_ = validate.RegisterValidation(tagUsername, fieldRule(Username))
		_ = validate.RegisterValidation(tagLtree, fieldRule(LtreePath))
		_ = validate.RegisterValidation(tagPermission, fieldRule(PermissionName))
	})
	return validate
}

func fieldRule(rule func(string) error) playground.Func {
	return func(fl playground.FieldLevel) bool {
		return rule(fl.Field().String()) == nil
	}
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct{}

func New() *Validator {
	get()
	return &Validator{}
}

// Validate checks struct tags and returns the first failure as a readable error.
func (v *Validator) Validate(i interface{}) error {
	err := get().Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(playground.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return err
	}

	return describe(fieldErrs[0])
}

func describe(fe playground.FieldError) error {
	field := strings.ToLower(fe.Field())
	value, _ := fe.Value().(string)

	switch fe.Tag() {
	case tagPassword:
		return Password(value)
	case tagUsername:
		return Username(value)
	case tagLtree:
		return LtreePath(value)
	case tagPermission:
		return PermissionName(value)
	}

	if fe.Param() != "" {
		return fmt.Errorf(errFieldFailedWithArgsFmt, field, fe.Tag(), fe.Param())
	}
	return fmt.Errorf(errFieldFailedFmt, field, fe.Tag())
}
