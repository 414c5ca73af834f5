package navigation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/services"
)

func TestDefaultMenus_Valid(t *testing.T) {
	menus := DefaultMenus()
	require.NoError(t, menus.Validate())

	for _, role := range models.AllRoles() {
		items := menus.Menu(role)
		require.NotEmpty(t, items, role)
		assert.Equal(t, role.HomePath(), items[0].Path, role)
	}
}

func TestMenuTable_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(MenuTable)
	}{
		{"missing role", func(m MenuTable) { delete(m, models.RoleFaculty) }},
		{"empty menu", func(m MenuTable) { m[models.RoleStudent] = nil }},
		{"wrong home", func(m MenuTable) { m[models.RoleAdmin][0].Path = "/faculty" }},
		{"relative path", func(m MenuTable) { m[models.RoleAdmin][1].Path = "admin/x" }},
		{"empty label", func(m MenuTable) { m[models.RoleGuest][1].Label = "" }},
		{"duplicate key", func(m MenuTable) { m[models.RoleStudent][2].Key = "courses" }},
		{"duplicate path", func(m MenuTable) { m[models.RoleStudent][2].Path = "/student/courses" }},
		{"path does not match key", func(m MenuTable) { m[models.RoleAdmin][1].Path = "/admin/bar" }},
		{"path under another role", func(m MenuTable) { m[models.RoleStudent][1].Path = "/admin/courses" }},
		{"key with slash", func(m MenuTable) {
			m[models.RoleFaculty][1] = MenuItem{Key: "research/labs", Label: "Labs", Path: "/faculty/research/labs"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultMenus()
			tt.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrInvalidMenu)
		})
	}
}

func TestMenuTable_ValidateLeavesSentinelUntouched(t *testing.T) {
	m := DefaultMenus()
	m[models.RoleAdmin][1].Path = "/admin/bar"

	err := m.Validate()
	require.Error(t, err)
	assert.Equal(t, "/admin/accounts", services.GetErrorDetails(err)["expected_path"])
	assert.Empty(t, services.ErrInvalidMenu.Details)
}

func TestSectionPath(t *testing.T) {
	assert.Equal(t, "/admin/accounts", SectionPath(models.RoleAdmin, "accounts"))
	assert.Equal(t, "/student/events", SectionPath(models.RoleStudent, "events"))
	assert.Equal(t, "/login", SectionPath(models.RoleGuest, "login"))
}

func TestMenuTable_MenuReturnsCopy(t *testing.T) {
	m := DefaultMenus()
	items := m.Menu(models.RoleAdmin)
	items[0].Label = "changed"
	assert.Equal(t, "Dashboard", m.Menu(models.RoleAdmin)[0].Label)
}

func TestMenuTable_Section(t *testing.T) {
	m := DefaultMenus()

	item, ok := m.Section(models.RoleStudent, "courses")
	require.True(t, ok)
	assert.Equal(t, "/student/courses", item.Path)

	_, ok = m.Section(models.RoleStudent, "accounts")
	assert.False(t, ok)
}

const validMenuYAML = `
menus:
  admin:
    - {key: dashboard, label: Overview, path: /admin}
  faculty:
    - {key: dashboard, label: Overview, path: /faculty}
  student:
    - {key: dashboard, label: Overview, path: /student}
    - {key: labs, label: Labs, path: /student/labs}
  guest:
    - {key: home, label: Welcome, path: /}
`

func TestParseMenus(t *testing.T) {
	m, err := ParseMenus([]byte(validMenuYAML))
	require.NoError(t, err)

	assert.Equal(t, "Overview", m.Menu(models.RoleAdmin)[0].Label)
	assert.Len(t, m.Menu(models.RoleStudent), 2)
}

func TestParseMenus_Errors(t *testing.T) {
	_, err := ParseMenus([]byte("menus: [unterminated"))
	assert.True(t, services.IsValidationError(err))

	_, err = ParseMenus([]byte(validMenuYAML + "  dean:\n    - {key: x, label: X, path: /}\n"))
	assert.True(t, services.IsValidationError(err))

	_, err = ParseMenus([]byte("menus:\n  admin:\n    - {key: dashboard, label: D, path: /admin}\n"))
	assert.True(t, services.IsValidationError(err))
}

func TestLoadMenuFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validMenuYAML), 0o600))

	m, err := LoadMenuFile(path)
	require.NoError(t, err)
	assert.Len(t, m, 4)

	_, err = LoadMenuFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestComposer_Compose(t *testing.T) {
	c := NewComposer(DefaultMenus())

	for _, role := range models.AllRoles() {
		u := models.NewUser("X", "X", "x@jain.com", role)
		l := c.Compose(u, map[string]string{"title": "hello"})

		assert.Equal(t, role, l.Role)
		assert.Equal(t, role.HomePath(), l.Home)
		assert.Equal(t, DefaultMenus().Menu(role), l.Menu)
		assert.Equal(t, map[string]string{"title": "hello"}, l.Content)
		require.NotNil(t, l.User)
		assert.Equal(t, "x@jain.com", l.User.Email)
	}
}

func TestComposer_ComposeWithoutUser(t *testing.T) {
	l := NewComposer(DefaultMenus()).Compose(nil, nil)

	assert.Nil(t, l.User)
	assert.Equal(t, models.RoleGuest, l.Role)
	assert.Equal(t, "/", l.Home)
	assert.Equal(t, "/", l.Menu[0].Path)
}

func TestComposer_ComposeSection(t *testing.T) {
	c := NewComposer(DefaultMenus())
	u := models.NewUser("FAC001", "Dr. Meera Nair", "faculty@jain.com", models.RoleFaculty)

	l, ok := c.ComposeSection(u, "research", "content")
	require.True(t, ok)
	assert.Equal(t, "research", l.Active)

	_, ok = c.ComposeSection(u, "accounts", nil)
	assert.False(t, ok)
}

func TestScreens(t *testing.T) {
	names := func(ss []Screen) []string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = s.Name
		}
		return out
	}

	guest := Screens(false)
	assert.Equal(t, []string{"Onboarding", "Login", "Register"}, names(guest))
	for _, s := range guest {
		assert.Equal(t, ScreenKindStack, s.Kind)
	}

	member := Screens(true)
	assert.Equal(t, []string{"Home", "Explore", "Share", "Profile"}, names(member))
	for _, s := range member {
		assert.Equal(t, ScreenKindTab, s.Kind)
	}

	member[0].Name = "changed"
	assert.Equal(t, "Home", Screens(true)[0].Name)
}
