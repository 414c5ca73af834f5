package navigation

// ScreenKind says how a mobile screen is presented
type ScreenKind string

const (
	ScreenKindStack ScreenKind = "stack"
	ScreenKindTab   ScreenKind = "tab"
)

// Screen is one entry of a mobile navigator
type Screen struct {
	Name string     `json:"name"`
	Kind ScreenKind `json:"kind"`
}

var (
	guestScreens = []Screen{
		{Name: "Onboarding", Kind: ScreenKindStack},
		{Name: "Login", Kind: ScreenKindStack},
		{Name: "Register", Kind: ScreenKindStack},
	}
	memberScreens = []Screen{
		{Name: "Home", Kind: ScreenKindTab},
		{Name: "Explore", Kind: ScreenKindTab},
		{Name: "Share", Kind: ScreenKindTab},
		{Name: "Profile", Kind: ScreenKindTab},
	}
)

// Screens returns the fixed screen set for an authentication state
func Screens(authenticated bool) []Screen {
	src := guestScreens
	if authenticated {
		src = memberScreens
	}
	out := make([]Screen, len(src))
	copy(out, src)
	return out
}
