package userstate

import (
	"slices"

	"github.com/goliatone/go-userstate/pkg/activity"
)

// State is the user-state context shared by the views of one session. Build
// it once with NewState and hand it to consumers; each field is exposed as a
// read-only Stream plus a setter.
type State struct {
	logger    Logger
	emitter   *activity.Emitter
	evaluator Evaluator

	perspective    *Slot[Perspective]
	investmentTeam *Slot[InvestmentTeam]
	currency       *Slot[Currency]
	region         *Slot[*Region]
	theme          *Slot[Theme]
	mode           *Slot[Mode]
	identity       *Slot[Identity]
	profileImage   *Slot[ImageURL]
	profile        *Slot[Profile]
	permissions    *Slot[[]Permission]
	roles          *Slot[[]Role]
	user           *Slot[User]
}

// NewState constructs a State with currency, theme, mode and permissions
// seeded and every other slot empty.
func NewState(opts ...Option) *State {
	cfg := applyOptions(opts)
	s := &State{
		logger:  loggerOrNoop(cfg.logger),
		emitter: activity.NewEmitter(cfg.activityHooks, cfg.activity),
	}

	s.perspective = newStateSlot[Perspective](s, cfg, "perspective")
	s.investmentTeam = newStateSlot[InvestmentTeam](s, cfg, "investment team")
	s.currency = newStateSlot(s, cfg, "currency", WithDefault(cfg.preferences.Currency))
	s.region = newStateSlot[*Region](s, cfg, "region")
	s.theme = newStateSlot(s, cfg, "theme", WithDefault(cfg.preferences.Theme))
	s.mode = newStateSlot(s, cfg, "mode", WithDefault(cfg.preferences.Mode))
	s.identity = newStateSlot[Identity](s, cfg, "identity")
	s.profileImage = newStateSlot[ImageURL](s, cfg, "profile image")
	s.profile = newStateSlot[Profile](s, cfg, "profile")
	s.permissions = newStateSlot(s, cfg, "permissions", WithDefault([]Permission{}))
	s.roles = newStateSlot[[]Role](s, cfg, "roles")
	s.user = newStateSlot(s, cfg, "user", WithMessage[User]("Setting the user to %s"))

	s.evaluator = s.resolveEvaluator(cfg)
	return s
}

func newStateSlot[T any](s *State, cfg stateConfig, name string, opts ...SlotOption[T]) *Slot[T] {
	base := []SlotOption[T]{
		WithSlotLogger[T](s.logger),
		WithRenderer[T](cfg.render),
		WithChangeHook(func(change Change[T]) {
			s.recordChange(change.Slot, change.Previous, change.HadPrevious, change.Value)
		}),
	}
	return NewSlot(name, append(base, opts...)...)
}

// Perspective streams the analytical lens the user is browsing with.
func (s *State) Perspective() Stream[Perspective] { return s.perspective.Stream() }

// SetPerspective publishes the selected perspective.
func (s *State) SetPerspective(v Perspective) { s.perspective.Set(v) }

// InvestmentTeam streams the selected investment team.
func (s *State) InvestmentTeam() Stream[InvestmentTeam] { return s.investmentTeam.Stream() }

// SetInvestmentTeam publishes the selected investment team.
func (s *State) SetInvestmentTeam(v InvestmentTeam) { s.investmentTeam.Set(v) }

// Currency streams the reporting currency, seeded with DefaultCurrency.
func (s *State) Currency() Stream[Currency] { return s.currency.Stream() }

// SetCurrency publishes the reporting currency.
func (s *State) SetCurrency(v Currency) { s.currency.Set(v) }

// Region streams the selected region. A nil *Region means "no region" and is
// delivered like any other value.
func (s *State) Region() Stream[*Region] { return s.region.Stream() }

// SetRegion publishes the selected region; nil clears the selection.
func (s *State) SetRegion(v *Region) { s.region.Set(v) }

// Theme streams the layout theme, seeded with DefaultTheme.
func (s *State) Theme() Stream[Theme] { return s.theme.Stream() }

// SetTheme publishes v as is; values outside Themes are not rejected.
func (s *State) SetTheme(v Theme) { s.theme.Set(v) }

// Mode streams the colour scheme, seeded with DefaultMode.
func (s *State) Mode() Stream[Mode] { return s.mode.Stream() }

// SetMode publishes v as is; values outside Modes are not rejected.
func (s *State) SetMode(v Mode) { s.mode.Set(v) }

// Identity streams the directory record of the signed-in user.
func (s *State) Identity() Stream[Identity] { return s.identity.Stream() }

// SetIdentity publishes the signed-in user's directory record. Its ID is
// attached to subsequent activity events.
func (s *State) SetIdentity(v Identity) { s.identity.Set(v) }

// ProfileImage streams the location of the user's profile picture.
func (s *State) ProfileImage() Stream[ImageURL] { return s.profileImage.Stream() }

// SetProfileImage publishes the profile picture location.
func (s *State) SetProfileImage(v ImageURL) { s.profileImage.Set(v) }

// Profile streams the analyst profile linked to the user.
func (s *State) Profile() Stream[Profile] { return s.profile.Stream() }

// SetProfile publishes the analyst profile.
func (s *State) SetProfile(v Profile) { s.profile.Set(v) }

// Permissions streams the granted permissions, seeded with an empty list.
func (s *State) Permissions() Stream[[]Permission] { return s.permissions.Stream() }

// SetPermissions publishes the granted permissions.
func (s *State) SetPermissions(v []Permission) { s.permissions.Set(v) }

// Roles streams the roles assigned to the user.
func (s *State) Roles() Stream[[]Role] { return s.roles.Stream() }

// SetRoles publishes the assigned roles.
func (s *State) SetRoles(v []Role) { s.roles.Set(v) }

// User streams the legacy combined user record.
//
// Deprecated: subscribe to Identity, Profile and Roles instead.
func (s *State) User() Stream[User] { return s.user.Stream() }

// SetUser publishes the legacy combined user record.
//
// Deprecated: use SetIdentity, SetProfile and SetRoles instead.
func (s *State) SetUser(v User) { s.user.Set(v) }

// HasPermission reports whether the current permission list contains name.
func (s *State) HasPermission(name string) bool {
	permissions, _ := s.permissions.Current()
	return slices.ContainsFunc(permissions, func(p Permission) bool {
		return p.Name == name
	})
}

// HasRole reports whether the current role list contains name.
func (s *State) HasRole(name string) bool {
	roles, _ := s.roles.Current()
	return slices.ContainsFunc(roles, func(r Role) bool {
		return r.Name == name
	})
}
