package navigation

import "github.com/upb/coe-portal/models"

// Layout is a dashboard page: the role's menu around a content region
type Layout struct {
	User    *models.User `json:"user"`
	Role    models.Role  `json:"role"`
	Home    string       `json:"home"`
	Menu    []MenuItem   `json:"menu"`
	Active  string       `json:"active,omitempty"`
	Content interface{}  `json:"content,omitempty"`
}

// Composer builds layouts from a menu table
type Composer struct {
	menus MenuTable
}

// NewComposer creates a new Composer
func NewComposer(menus MenuTable) *Composer {
	return &Composer{menus: menus}
}

// Menus returns the composer's menu table
func (c *Composer) Menus() MenuTable {
	return c.menus
}

// Compose wraps content with the menu for the user's role. A nil user gets
// the guest menu.
func (c *Composer) Compose(user *models.User, content interface{}) Layout {
	role := user.RoleOrGuest()
	return Layout{
		User:    user.Clone(),
		Role:    role,
		Home:    role.HomePath(),
		Menu:    c.menus.Menu(role),
		Content: content,
	}
}

// ComposeSection is Compose with the menu entry for key marked active
func (c *Composer) ComposeSection(user *models.User, key string, content interface{}) (Layout, bool) {
	l := c.Compose(user, content)
	item, ok := c.menus.Section(l.Role, key)
	if !ok {
		return Layout{}, false
	}
	l.Active = item.Key
	return l, true
}
