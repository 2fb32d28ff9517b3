package jobs

import "testing"

func TestNewRunID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRunID()
		if !IsRunID(id) {
			t.Fatalf("malformed run ID %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate run ID %q", id)
		}
		seen[id] = true
	}
}

func TestIsRunID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"restyle_0a1b2c3d", true},
		{"restyle_0A1B2C3D", false},
		{"restyle_0a1b2c3", false},
		{"restyle_../../etc", false},
		{"0a1b2c3d", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsRunID(tt.in); got != tt.want {
			t.Errorf("IsRunID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path       string
		wantID     string
		wantAction string
		wantOK     bool
	}{
		{"/api/runs/restyle_0a1b2c3d/bundle", "restyle_0a1b2c3d", "bundle", true},
		{"/api/runs/0a1b2c3d/file", "restyle_0a1b2c3d", "file", true},
		{"/api/runs/restyle_0a1b2c3d", "", "", false},
		{"/api/runs/restyle_0a1b2c3d/", "", "", false},
		{"/api/runs/..%2f/bundle", "", "", false},
		{"/api/runs/zzzzzzzz/bundle", "", "", false},
	}
	for _, tt := range tests {
		id, action, ok := ParseRoute(tt.path, "/api/runs/")
		if id != tt.wantID || action != tt.wantAction || ok != tt.wantOK {
			t.Errorf("ParseRoute(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.path, id, action, ok, tt.wantID, tt.wantAction, tt.wantOK)
		}
	}
}
