package userstate

import "slices"

// Theme names a layout density the front end can render.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeCompact Theme = "compact"
)

// Themes lists every supported Theme.
var Themes = []Theme{ThemeDefault, ThemeCompact}

// IsValid reports whether t is one of Themes.
func (t Theme) IsValid() bool {
	return slices.Contains(Themes, t)
}

// Mode names a colour scheme.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Modes lists every supported Mode.
var Modes = []Mode{ModeLight, ModeDark}

// IsValid reports whether m is one of Modes.
func (m Mode) IsValid() bool {
	return slices.Contains(Modes, m)
}

// Currency is the reporting currency selected by the user.
type Currency struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Perspective is the analytical lens the user is browsing with.
type Perspective struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Region is a geographic coverage area of an investment team.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InvestmentTeam groups analysts covering one or more regions.
type InvestmentTeam struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Regions []Region `json:"regions,omitempty"`
}

// Identity is the directory record of the signed-in user.
type Identity struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName,omitempty"`
	GivenName         string `json:"givenName,omitempty"`
	Surname           string `json:"surname,omitempty"`
	Mail              string `json:"mail,omitempty"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
}

// ImageURL locates the user's profile picture.
type ImageURL string

// Profile is the analyst profile linked to the signed-in user.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Initials string `json:"initials,omitempty"`
	TeamID   string `json:"teamId,omitempty"`
}

// Permission is a single capability granted to the user.
type Permission struct {
	Name string `json:"name"`
}

// Role is a named bundle of permissions assigned to the user.
type Role struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User is the legacy combined user record.
//
// Deprecated: use Identity, Profile and Roles instead.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Roles []Role `json:"roles,omitempty"`
}
