package auth

import (
	"testing"

	"github.com/iliyamo/devocional/internal/model"
)

func TestClassify(t *testing.T) {
	id := model.Identity{ID: "u1", Email: "a@b.c"}
	tests := []struct {
		name string
		s    *Session
		want Kind
	}{
		{"nil session", nil, Unauthenticated},
		{"empty identity", &Session{}, Unauthenticated},
		{"no profile", &Session{Identity: id}, Reader},
		{"empty role", &Session{Identity: id, Profile: &model.Profile{ID: "u1"}}, Reader},
		{"user role", &Session{Identity: id, Profile: &model.Profile{ID: "u1", Role: model.RoleUser}}, Reader},
		{"admin role", &Session{Identity: id, Profile: &model.Profile{ID: "u1", Role: model.RoleAdmin}}, Admin},
		{"unknown role", &Session{Identity: id, Profile: &model.Profile{ID: "u1", Role: "editor"}}, Reader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.s); got.Kind != tt.want {
				t.Errorf("Classify() = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestGate(t *testing.T) {
	admin := Principal{Kind: Admin, UserID: "a"}
	reader := Principal{Kind: Reader, UserID: "r"}
	anon := Principal{}

	tests := []struct {
		name     string
		r        Resolution
		section  Section
		state    State
		action   Action
		location string
	}{
		{"pending admin page", Resolution{Pending: true}, SectionAdmin, StatePending, ActionLoading, ""},
		{"pending never redirects", Resolution{Pending: true, Principal: reader}, SectionAdmin, StatePending, ActionLoading, ""},
		{"anonymous admin page", Resolution{Principal: anon}, SectionAdmin, StateUnauthenticated, ActionRedirect, "/"},
		{"anonymous reader page", Resolution{Principal: anon}, SectionReader, StateUnauthenticated, ActionRedirect, "/"},
		{"reader in admin", Resolution{Principal: reader}, SectionAdmin, StateWrongRole, ActionRedirect, "/dashboard"},
		{"admin in reader", Resolution{Principal: admin}, SectionReader, StateWrongRole, ActionRedirect, "/admin"},
		{"admin in admin", Resolution{Principal: admin}, SectionAdmin, StateAuthorized, ActionRender, ""},
		{"reader in reader", Resolution{Principal: reader}, SectionReader, StateAuthorized, ActionRender, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Gate(tt.r, tt.section)
			if d.State != tt.state || d.Action != tt.action || d.Location != tt.location {
				t.Errorf("Gate() = %+v, want state %v action %v location %q", d, tt.state, tt.action, tt.location)
			}
		})
	}
}

func TestHome(t *testing.T) {
	if Home(Principal{Kind: Admin}) != "/admin" || Home(Principal{Kind: Reader}) != "/dashboard" || Home(Principal{}) != "/" {
		t.Error("Home() returned an unexpected destination")
	}
}
