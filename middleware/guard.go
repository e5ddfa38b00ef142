package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

const (
	AppDashboard = "dashboard"
	AppStore     = "store"
)

// Redirect reasons reported by the guard.
const (
	ReasonUnauthenticated    = "unauthenticated"
	ReasonInactive           = "inactive"
	ReasonNoBusiness         = "no_business"
	ReasonCashierOnDashboard = "cashier_on_dashboard"
	ReasonSessionClosed      = "session_closed"
	ReasonSessionExpired     = "session_expired"
)

// GuardState is everything the guard looks at. User is nil when the token
// pointed at a user that no longer exists; Session is the user's open cash
// session, nil when there is none.
type GuardState struct {
	App           string
	Authenticated bool
	User          *models.User
	Session       *models.UserSession
	Now           time.Time
}

type GuardDecision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func redirect(to, reason string) GuardDecision {
	return GuardDecision{Redirect: to, Reason: reason}
}

// ResolveGuard decides where a visitor of app must go. Checks run in order
// and the first failing one wins.
func ResolveGuard(s GuardState) GuardDecision {
	switch {
	case !s.Authenticated:
		return redirect("/login", ReasonUnauthenticated)
	case s.User == nil || !s.User.Active:
		return redirect("/login", ReasonInactive)
	case s.User.BusinessID == 0:
		return redirect("/onboarding", ReasonNoBusiness)
	case s.App == AppDashboard && s.User.Role == models.RoleCashier:
		return redirect("/store", ReasonCashierOnDashboard)
	case s.App == AppStore && (s.Session == nil || !s.Session.IsOpen()):
		return redirect("/login", ReasonSessionClosed)
	case s.App == AppStore && s.Session.Expired(s.Now):
		return redirect("/login", ReasonSessionExpired)
	}
	return GuardDecision{Allowed: true}
}

// LoadGuardState reads the user and, for the store, its open session.
// userID zero means the request carried no valid token.
func LoadGuardState(db *gorm.DB, app string, userID uint, now time.Time) (GuardState, error) {
	s := GuardState{App: app, Authenticated: userID != 0, Now: now}
	if !s.Authenticated {
		return s, nil
	}
	user, err := services.GetUser(db, userID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return s, nil
	case err != nil:
		return s, err
	}
	s.User = user
	if app == AppStore {
		session, err := services.CurrentSession(db, userID)
		switch {
		case errors.Is(err, services.ErrNoOpenSession):
		case err != nil:
			return s, err
		default:
			s.Session = session
		}
	}
	return s, nil
}

// GuardMiddleware applies the guard of app to an authenticated route group.
func GuardMiddleware(db *gorm.DB, app string) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := LoadGuardState(db, app, c.GetUint("user_id"), time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Could not verify account",
				"code":  "SERVER_ERROR",
			})
			return
		}
		decision := ResolveGuard(state)
		if decision.Allowed {
			c.Next()
			return
		}
		status := http.StatusForbidden
		if decision.Reason == ReasonUnauthenticated {
			status = http.StatusUnauthorized
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":    "Access to " + app + " denied",
			"code":     "GUARD_REDIRECT",
			"redirect": decision.Redirect,
			"reason":   decision.Reason,
		})
	}
}
