package auth

import (
	"testing"
	"time"
)

func TestIdentity_IsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"never", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &Identity{ExpiresAt: tt.expiresAt}
			if got := id.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentity_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := (&Identity{}).TTL(now); got >= 0 {
		t.Errorf("TTL() = %v, want negative for non-expiring identity", got)
	}
	if got := (&Identity{ExpiresAt: now.Add(time.Minute)}).TTL(now); got != time.Minute {
		t.Errorf("TTL() = %v, want 1m", got)
	}
	if got := (&Identity{ExpiresAt: now.Add(-time.Minute)}).TTL(now); got != 0 {
		t.Errorf("TTL() = %v, want 0", got)
	}
}
