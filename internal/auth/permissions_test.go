package auth

import "testing"

func TestHasAll(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required []string
		want     bool
	}{
		{name: "empty required, empty granted", want: true},
		{name: "empty required", granted: []string{PermViewUsers}, want: true},
		{name: "exact match", granted: []string{PermViewUsers}, required: []string{PermViewUsers}, want: true},
		{name: "strict subset", granted: []string{PermViewUsers, PermDeleteUser}, required: []string{PermDeleteUser}, want: true},
		{name: "missing one", granted: []string{PermViewUsers}, required: []string{PermViewUsers, PermDeleteUser}, want: false},
		{name: "nothing granted", required: []string{PermViewDashboard}, want: false},
		{name: "case sensitive", granted: []string{"view_users"}, required: []string{PermViewUsers}, want: false},
		{name: "unknown code granted", granted: []string{"EXPORT"}, required: []string{"EXPORT"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAll(tt.granted, tt.required); got != tt.want {
				t.Errorf("HasAll(%v, %v) = %v, want %v", tt.granted, tt.required, got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	known := KnownPermissions()
	codes := AllPermissionCodes()

	if len(known) != 5 || len(codes) != len(known) {
		t.Fatalf("registry size = %d/%d, want 5", len(known), len(codes))
	}
	for _, p := range known {
		if p.Label == "" {
			t.Errorf("permission %s has no label", p.Code)
		}
		if !IsKnownPermission(p.Code) {
			t.Errorf("IsKnownPermission(%s) = false", p.Code)
		}
	}
	if IsKnownPermission("EXPORT") {
		t.Error("IsKnownPermission(EXPORT) = true")
	}

	known[0].Code = "MUTATED"
	if KnownPermissions()[0].Code == "MUTATED" {
		t.Error("KnownPermissions() exposes the registry")
	}

	presets := Presets()
	if len(presets[PresetAll]) != len(codes) {
		t.Errorf("preset all = %v", presets[PresetAll])
	}
	if len(presets[PresetGuest]) != 1 || presets[PresetGuest][0] != PermViewDashboard {
		t.Errorf("preset guest = %v", presets[PresetGuest])
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := map[string]bool{
		"a@x.com":                  true,
		"first.last@example.co.uk": true,
		"":                         false,
		"plain":                    false,
		"@example.com":             false,
		"Bob <bob@example.com>":    false,
		"bob@example.com ":         false,
	}
	for in, want := range tests {
		if got := IsValidEmail(in); got != want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
}
