// Package navigation holds the static role-keyed menu table, composes
// dashboard layouts and lists the mobile screen sets.
package navigation

import (
	"fmt"
	"os"
	"strings"

	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/services"
	"gopkg.in/yaml.v3"
)

// MenuItem is one navigation entry
type MenuItem struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Path  string `json:"path" yaml:"path"`
}

// MenuTable maps each role to its ordered menu. The first entry of every
// menu is the role's home path.
type MenuTable map[models.Role][]MenuItem

// DefaultMenus returns the built-in menu table
func DefaultMenus() MenuTable {
	return MenuTable{
		models.RoleAdmin: {
			{Key: "dashboard", Label: "Dashboard", Path: "/admin"},
			{Key: "accounts", Label: "Accounts", Path: "/admin/accounts"},
			{Key: "centers", Label: "Centers", Path: "/admin/centers"},
			{Key: "reports", Label: "Reports", Path: "/admin/reports"},
		},
		models.RoleFaculty: {
			{Key: "dashboard", Label: "Dashboard", Path: "/faculty"},
			{Key: "research", Label: "Research", Path: "/faculty/research"},
			{Key: "students", Label: "Students", Path: "/faculty/students"},
			{Key: "schedule", Label: "Schedule", Path: "/faculty/schedule"},
		},
		models.RoleStudent: {
			{Key: "dashboard", Label: "Dashboard", Path: "/student"},
			{Key: "courses", Label: "Courses", Path: "/student/courses"},
			{Key: "projects", Label: "Projects", Path: "/student/projects"},
			{Key: "events", Label: "Events", Path: "/student/events"},
		},
		models.RoleGuest: {
			{Key: "home", Label: "Home", Path: "/"},
			{Key: "login", Label: "Login", Path: "/login"},
		},
	}
}

// Validate checks that every role has a menu starting at its home path,
// that every other entry lives at SectionPath, and that keys and paths are
// unique within a menu
func (t MenuTable) Validate() error {
	for _, role := range models.AllRoles() {
		items, ok := t[role]
		if !ok || len(items) == 0 {
			return services.ErrInvalidMenu.Wrap(nil).WithDetail("role", role.String())
		}
		if items[0].Path != role.HomePath() {
			return services.ErrInvalidMenu.Wrap(nil).
				WithDetail("role", role.String()).
				WithDetail("expected_home", role.HomePath())
		}

		keys := make(map[string]bool, len(items))
		paths := make(map[string]bool, len(items))
		for i, item := range items {
			if item.Key == "" || strings.Contains(item.Key, "/") || item.Label == "" || !strings.HasPrefix(item.Path, "/") {
				return services.ErrInvalidMenu.Wrap(nil).
					WithDetail("role", role.String()).
					WithDetail("key", item.Key)
			}
			if i > 0 && item.Path != SectionPath(role, item.Key) {
				return services.ErrInvalidMenu.Wrap(nil).
					WithDetail("role", role.String()).
					WithDetail("key", item.Key).
					WithDetail("expected_path", SectionPath(role, item.Key))
			}
			if keys[item.Key] || paths[item.Path] {
				return services.ErrInvalidMenu.Wrap(nil).
					WithDetail("role", role.String()).
					WithDetail("duplicate", item.Key)
			}
			keys[item.Key] = true
			paths[item.Path] = true
		}
	}
	return nil
}

// SectionPath is the route serving a role's menu section
func SectionPath(role models.Role, key string) string {
	return strings.TrimSuffix(role.HomePath(), "/") + "/" + key
}

// Menu returns a copy of the role's menu
func (t MenuTable) Menu(role models.Role) []MenuItem {
	items := t[role]
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}

// Section finds a menu entry by key
func (t MenuTable) Section(role models.Role, key string) (MenuItem, bool) {
	for _, item := range t[role] {
		if item.Key == key {
			return item, true
		}
	}
	return MenuItem{}, false
}

type menuFile struct {
	Menus map[string][]MenuItem `yaml:"menus"`
}

// LoadMenuFile reads a YAML menu table from disk
func LoadMenuFile(path string) (MenuTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}
	return ParseMenus(data)
}

// ParseMenus decodes and validates a YAML menu table
func ParseMenus(data []byte) (MenuTable, error) {
	var f menuFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, services.WrapError(services.ErrorTypeValidation, "malformed menu file", err)
	}

	table := make(MenuTable, len(f.Menus))
	for name, items := range f.Menus {
		role, ok := models.ParseRole(name)
		if !ok {
			return nil, services.ErrInvalidMenu.Wrap(nil).WithDetail("role", name)
		}
		table[role] = items
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
