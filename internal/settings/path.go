package settings

import (
	"strings"

	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/validator"
)

const (
	RootLabel    = "global"
	UserLabel    = "user"
	AppLabel     = "app"
	DefaultLabel = "default"

	SystemPath          = RootLabel + ".system"
	UserDefaultPath     = RootLabel + "." + UserLabel + "." + DefaultLabel
	AppClassDefaultPath = RootLabel + "." + AppLabel + "." + DefaultLabel

	pathSeparator = "."
)

// Scope selects which optional layers participate in a resolution.
// Empty fields skip the corresponding layers.
type Scope struct {
	AppID  string
	UserID string
}

// Label turns an identifier into an ltree label. Hyphens, as found in UUIDs,
// are not valid label characters and become underscores.
func Label(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

func UserPath(userID string) string {
	return join(RootLabel, UserLabel, Label(userID))
}

func AppPath(appID string) string {
	return join(RootLabel, AppLabel, Label(appID))
}

func AppDefaultPath(appID string) string {
	return join(AppPath(appID), DefaultLabel)
}

func AppUserDefaultPath(appID string) string {
	return join(AppPath(appID), UserLabel, DefaultLabel)
}

func AppUserPath(appID, userID string) string {
	return join(AppPath(appID), UserLabel, Label(userID))
}

// Chain lists the paths consulted for scope, lowest precedence first:
//
//	global.system
//	global.user.default                 (user)
//	global.user.<user>                  (user)
//	global.app.default                  (app)
//	global.app.<app>.default            (app)
//	global.app.<app>                    (app)
//	global.app.<app>.user.default       (app)
//	global.app.<app>.user.<user>        (app and user)
//
// Class defaults stand in for a user or app lacking its own override, so
// they only participate when the scope names one.
func Chain(scope Scope) []string {
	paths := make([]string, 0, 8)
	paths = append(paths, SystemPath)

	if scope.UserID != "" {
		paths = append(paths, UserDefaultPath, UserPath(scope.UserID))
	}

	if scope.AppID != "" {
		paths = append(paths,
			AppClassDefaultPath,
			AppDefaultPath(scope.AppID),
			AppPath(scope.AppID),
			AppUserDefaultPath(scope.AppID),
		)
		if scope.UserID != "" {
			paths = append(paths, AppUserPath(scope.AppID, scope.UserID))
		}
	}

	return dedupe(paths)
}

// ValidateScope rejects identifiers that cannot be expressed as a single label.
func ValidateScope(scope Scope) error {
	if scope.UserID != "" && !isLabel(Label(scope.UserID)) {
		return invalidScope("user", scope.UserID)
	}
	if scope.AppID != "" && !isLabel(Label(scope.AppID)) {
		return invalidScope("app", scope.AppID)
	}
	return nil
}

// ValidatePath checks that path is a well-formed ltree rooted at "global".
func ValidatePath(path string) error {
	if err := validator.LtreePath(path); err != nil {
		return invalidPath(path)
	}
	if path != RootLabel && !strings.HasPrefix(path, RootLabel+pathSeparator) {
		return invalidPath(path)
	}
	return nil
}

// OwnedBy reports whether path lies in the personal subtree of userID, either
// global.user.<user> or global.app.<app>.user.<user>, or below them.
func OwnedBy(path, userID string) bool {
	if userID == "" {
		return false
	}

	label := Label(userID)
	if label == DefaultLabel {
		return false
	}

	segs := strings.Split(path, pathSeparator)
	if len(segs) < 3 || segs[0] != RootLabel {
		return false
	}

	switch segs[1] {
	case UserLabel:
		return segs[2] == label
	case AppLabel:
		return len(segs) >= 5 && segs[3] == UserLabel && segs[4] == label
	}
	return false
}

func isLabel(label string) bool {
	return !strings.Contains(label, pathSeparator) && validator.LtreePath(label) == nil
}

func join(labels ...string) string {
	return strings.Join(labels, pathSeparator)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
