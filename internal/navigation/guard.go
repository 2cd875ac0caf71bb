package navigation

import (
	"strings"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/session"
)

type Access int

const (
	Public Access = iota
	GuestOnly
	Protected
)

type Action string

const (
	Allow    Action = "allow"
	Redirect Action = "redirect"
	Wait     Action = "wait"
)

const (
	HomePath      = "/"
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Views reachable under /dashboard.
var Views = []string{
	"messages",
	"history",
	"notifications",
	"services",
	"settings",
	"profile",
	"help",
	"ai-help",
	"professional-help",
}

type Decision struct {
	Action Action `json:"action"`
	To     string `json:"to,omitempty"`
	// View is the dashboard view the path renders, "overview" for /dashboard.
	View string `json:"view,omitempty"`
}

var guestOnly = map[string]bool{
	"/login":           true,
	"/signup":          true,
	"/forgot-password": true,
}

// Classify reports the access rule of a path and its dashboard view. Unknown
// paths are NotFound.
func Classify(path string) (Access, string, error) {
	path = normalize(path)
	switch {
	case path == HomePath:
		return Public, "", nil
	case guestOnly[path]:
		return GuestOnly, "", nil
	case path == DashboardPath:
		return Protected, "overview", nil
	case strings.HasPrefix(path, DashboardPath+"/"):
		view := strings.TrimPrefix(path, DashboardPath+"/")
		for _, v := range Views {
			if v == view {
				return Protected, view, nil
			}
		}
	}
	return Public, "", apperror.NotFound("route")
}

// Guard decides what happens when a client in the given session state opens
// path.
func Guard(path string, status session.Status) (Decision, error) {
	access, view, err := Classify(path)
	if err != nil {
		return Decision{}, err
	}

	if access != Public && status == session.Loading {
		return Decision{Action: Wait}, nil
	}

	switch {
	case access == GuestOnly && status == session.Authenticated:
		return Decision{Action: Redirect, To: DashboardPath}, nil
	case access == Protected && status == session.Anonymous:
		return Decision{Action: Redirect, To: LoginPath}, nil
	}
	return Decision{Action: Allow, View: view}, nil
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return HomePath
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
