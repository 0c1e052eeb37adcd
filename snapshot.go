package userstate

import (
	"encoding/json"
)

// SnapshotKeys lists the keys State.Snapshot may populate. permissionNames
// and roleNames are derived from the permissions and roles slots.
var SnapshotKeys = []string{
	"perspective",
	"investmentTeam",
	"currency",
	"region",
	"theme",
	"mode",
	"identity",
	"profileImage",
	"profile",
	"permissions",
	"permissionNames",
	"roles",
	"roleNames",
	"user",
}

// Snapshot returns a JSON-shaped copy of every slot currently holding a
// value. Structs become map[string]any keyed by their json names, slices
// become []any. Empty slots are omitted.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(SnapshotKeys))
	put := func(key string, value any, ok bool) {
		if ok {
			out[key] = jsonShape(value)
		}
	}

	perspective, ok := s.perspective.Current()
	put("perspective", perspective, ok)
	team, ok := s.investmentTeam.Current()
	put("investmentTeam", team, ok)
	currency, ok := s.currency.Current()
	put("currency", currency, ok)
	region, ok := s.region.Current()
	put("region", region, ok)
	theme, ok := s.theme.Current()
	put("theme", theme, ok)
	mode, ok := s.mode.Current()
	put("mode", mode, ok)
	identity, ok := s.identity.Current()
	put("identity", identity, ok)
	image, ok := s.profileImage.Current()
	put("profileImage", image, ok)
	profile, ok := s.profile.Current()
	put("profile", profile, ok)
	user, ok := s.user.Current()
	put("user", user, ok)

	if permissions, ok := s.permissions.Current(); ok {
		out["permissions"] = jsonShape(permissions)
		names := make([]any, 0, len(permissions))
		for _, permission := range permissions {
			names = append(names, permission.Name)
		}
		out["permissionNames"] = names
	}
	if roles, ok := s.roles.Current(); ok {
		out["roles"] = jsonShape(roles)
		names := make([]any, 0, len(roles))
		for _, role := range roles {
			names = append(names, role.Name)
		}
		out["roleNames"] = names
	}
	return out
}

// jsonShape round-trips value through encoding/json so rule engines only see
// maps, slices, strings, float64s, bools and nil.
func jsonShape(value any) any {
	payload, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var shaped any
	if err := json.Unmarshal(payload, &shaped); err != nil {
		return value
	}
	return shaped
}
