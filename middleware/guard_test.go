package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

func TestResolveGuard(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	owner := &models.User{Role: models.RoleOwner, BusinessID: 1, Active: true}
	cashier := &models.User{Role: models.RoleCashier, BusinessID: 1, Active: true}
	inactive := &models.User{Role: models.RoleOwner, BusinessID: 1}
	orphan := &models.User{Role: models.RoleOwner, Active: true}
	open := &models.UserSession{ExpiresAt: &later}
	expired := &models.UserSession{ExpiresAt: &earlier}
	closed := &models.UserSession{ClosedAt: &earlier}

	tests := []struct {
		name     string
		state    GuardState
		redirect string
		reason   string
	}{
		{"anonymous", GuardState{App: AppDashboard}, "/login", ReasonUnauthenticated},
		{"deleted user", GuardState{App: AppDashboard, Authenticated: true}, "/login", ReasonInactive},
		{"inactive user", GuardState{App: AppStore, Authenticated: true, User: inactive, Session: open}, "/login", ReasonInactive},
		{"no business", GuardState{App: AppDashboard, Authenticated: true, User: orphan}, "/onboarding", ReasonNoBusiness},
		{"cashier on dashboard", GuardState{App: AppDashboard, Authenticated: true, User: cashier}, "/store", ReasonCashierOnDashboard},
		{"owner on dashboard", GuardState{App: AppDashboard, Authenticated: true, User: owner}, "", ""},
		{"store without session", GuardState{App: AppStore, Authenticated: true, User: cashier}, "/login", ReasonSessionClosed},
		{"store with closed session", GuardState{App: AppStore, Authenticated: true, User: cashier, Session: closed}, "/login", ReasonSessionClosed},
		{"store with expired session", GuardState{App: AppStore, Authenticated: true, User: cashier, Session: expired}, "/login", ReasonSessionExpired},
		{"store with open session", GuardState{App: AppStore, Authenticated: true, User: cashier, Session: open}, "", ""},
		{"owner in store", GuardState{App: AppStore, Authenticated: true, User: owner, Session: &models.UserSession{}}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.state.Now = now
			d := ResolveGuard(tt.state)
			assert.Equal(t, tt.redirect == "", d.Allowed)
			assert.Equal(t, tt.redirect, d.Redirect)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}
