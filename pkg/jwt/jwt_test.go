package jwt

import (
	"testing"
	"time"
)

func TestManager_GenerateAndValidate(t *testing.T) {
	m := NewManager("secret", time.Minute)

	token, err := m.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	userID, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != "user-1" {
		t.Errorf("ValidateToken() = %q, want %q", userID, "user-1")
	}
}

func TestManager_ValidateToken_Invalid(t *testing.T) {
	m := NewManager("secret", time.Minute)

	token, err := m.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
		mgr   *Manager
	}{
		{name: "garbage", token: "not.a.token", mgr: m},
		{name: "wrong secret", token: token, mgr: NewManager("other-secret", time.Minute)},
		{name: "expired", token: mustToken(t, NewManager("secret", -time.Minute)), mgr: m},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.mgr.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() error = nil, want error")
			}
		})
	}
}

func mustToken(t *testing.T, m *Manager) string {
	t.Helper()

	token, err := m.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	return token
}
