package guard

import (
	"testing"

	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/models"
	"github.com/example/gymdesk/internal/session"
)

var (
	anyone = &identity.Identity{UID: "u1", Email: "u1@example.com"}
	roles  = []models.Role{models.RoleNone, models.RoleMember, models.RoleAdmin, models.Role("owner")}
	phases = []session.Phase{session.PhaseUninitialized, session.PhaseLoading}
)

func TestNeverRedirectsWhileLoading(t *testing.T) {
	policies := map[string]Policy{
		"authenticated": Authenticated(),
		"member":        MemberOnly(),
		"admin":         AdminOnly(),
	}
	for name, p := range policies {
		for _, phase := range phases {
			for _, id := range []*identity.Identity{nil, anyone} {
				for _, role := range roles {
					snap := session.Snapshot{Identity: id, Role: role, Phase: phase}
					if d := p.Evaluate(snap); d.Outcome != Wait {
						t.Errorf("%s: expected Wait for %+v, got %s", name, snap, d.Outcome)
					}
				}
			}
		}
	}
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	snap := session.Snapshot{Phase: session.PhaseReady}
	for name, p := range map[string]Policy{"authenticated": Authenticated(), "member": MemberOnly(), "admin": AdminOnly()} {
		d := p.Evaluate(snap)
		if d.Outcome != Redirect || d.Location != "/login" || d.Reason != ReasonUnauthenticated {
			t.Errorf("%s: expected redirect to /login, got %+v", name, d)
		}
	}
}

func TestRoleGuardsAdmitExactRole(t *testing.T) {
	cases := []struct {
		policy Policy
		name   string
		admit  models.Role
	}{
		{MemberOnly(), "member", models.RoleMember},
		{AdminOnly(), "admin", models.RoleAdmin},
	}
	for _, tc := range cases {
		for _, role := range roles {
			d := tc.policy.Evaluate(session.Snapshot{Identity: anyone, Role: role, Phase: session.PhaseReady})
			if role == tc.admit {
				if d.Outcome != Render {
					t.Errorf("%s guard: expected Render for role %q, got %+v", tc.name, role, d)
				}
				continue
			}
			if d.Outcome != Redirect || d.Location != "/" || d.Reason != ReasonForbidden {
				t.Errorf("%s guard: expected redirect to / for role %q, got %+v", tc.name, role, d)
			}
		}
	}
}

func TestAuthenticatedIgnoresRole(t *testing.T) {
	for _, role := range roles {
		d := Authenticated().Evaluate(session.Snapshot{Identity: anyone, Role: role, Phase: session.PhaseReady})
		if d.Outcome != Render {
			t.Errorf("expected Render for role %q, got %+v", role, d)
		}
	}
}

func TestPublicAlwaysRenders(t *testing.T) {
	if d := Public().Evaluate(session.Snapshot{}); d.Outcome != Render {
		t.Fatalf("expected Render, got %+v", d)
	}
}
