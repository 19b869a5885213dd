package auth

// Permission codes known to the bundled UI. The store accepts any code.
const (
	PermViewDashboard = "VIEW_DASHBOARD"
	PermViewUsers     = "VIEW_USERS"
	PermCreateUser    = "CREATE_USER"
	PermUpdateUser    = "UPDATE_USER"
	PermDeleteUser    = "DELETE_USER"
)

// PermissionInfo describes a known code for display.
type PermissionInfo struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// knownPermissions is ordered the way the UI lists them.
var knownPermissions = []PermissionInfo{
	{Code: PermViewDashboard, Label: "View dashboard"},
	{Code: PermViewUsers, Label: "View users"},
	{Code: PermCreateUser, Label: "Create users"},
	{Code: PermUpdateUser, Label: "Edit users"},
	{Code: PermDeleteUser, Label: "Delete users"},
}

// Preset names.
const (
	PresetAll   = "all"
	PresetGuest = "guest"
)

// KnownPermissions returns a copy of the registry.
func KnownPermissions() []PermissionInfo {
	out := make([]PermissionInfo, len(knownPermissions))
	copy(out, knownPermissions)
	return out
}

// AllPermissionCodes returns every known code.
func AllPermissionCodes() []string {
	codes := make([]string, len(knownPermissions))
	for i, p := range knownPermissions {
		codes[i] = p.Code
	}
	return codes
}

// Presets returns the named permission bundles offered when creating users.
func Presets() map[string][]string {
	return map[string][]string{
		PresetAll:   AllPermissionCodes(),
		PresetGuest: {PermViewDashboard},
	}
}

// IsKnownPermission reports whether code is in the registry.
func IsKnownPermission(code string) bool {
	for _, p := range knownPermissions {
		if p.Code == code {
			return true
		}
	}
	return false
}

// HasAll reports whether every code in required is present in granted.
// An empty required set is always satisfied.
func HasAll(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[g] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
