package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/coe-portal/middleware"
	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/navigation"
	"github.com/upb/coe-portal/repositories"
	"github.com/upb/coe-portal/services"
	"github.com/upb/coe-portal/utils"
	"go.uber.org/zap"
)

const portalTitle = "Center of Excellence"

// PageContent is the content region of a composed page
type PageContent struct {
	Title   string      `json:"title"`
	Section string      `json:"section,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginForm describes the login page form
type LoginForm struct {
	Action string   `json:"action"`
	Method string   `json:"method"`
	Fields []string `json:"fields"`
}

// ScreensResponse lists the mobile screens for the current session
type ScreensResponse struct {
	Authenticated bool                `json:"authenticated"`
	Screens       []navigation.Screen `json:"screens"`
}

// PortalHandler serves the composed portal pages
type PortalHandler struct {
	composer *navigation.Composer
	accounts repositories.AccountDirectory
	logger   *zap.Logger
}

// NewPortalHandler creates a new PortalHandler
func NewPortalHandler(composer *navigation.Composer, accounts repositories.AccountDirectory, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{
		composer: composer,
		accounts: accounts,
		logger:   logger,
	}
}

// currentUser returns the session user for the request, nil when anonymous
func currentUser(r *http.Request) *models.User {
	if s := middleware.GetSessionFromContext(r.Context()); s != nil {
		return s.User()
	}
	return nil
}

// HandleLanding handles GET /
func (h *PortalHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	content := PageContent{Title: portalTitle, Message: "Welcome to the " + portalTitle}
	if user != nil {
		content.Message = "Welcome back, " + user.Name
	}

	_ = utils.WriteOK(w, h.composer.Compose(user, content))
}

// HandleLoginPage handles GET /login
func (h *PortalHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	content := PageContent{
		Title:   "Sign in",
		Section: "login",
		Data: LoginForm{
			Action: "/auth/login",
			Method: http.MethodPost,
			Fields: []string{"email"},
		},
	}

	_ = utils.WriteOK(w, h.composer.Compose(currentUser(r), content))
}

// HandleLayout handles GET /api/v1/layout
func (h *PortalHandler) HandleLayout(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, h.composer.Compose(currentUser(r), nil))
}

// HandleScreens handles GET /api/v1/navigation/screens
func (h *PortalHandler) HandleScreens(w http.ResponseWriter, r *http.Request) {
	authenticated := currentUser(r) != nil
	_ = utils.WriteOK(w, ScreensResponse{
		Authenticated: authenticated,
		Screens:       navigation.Screens(authenticated),
	})
}

// HandleDashboard handles GET /{role} and GET /{role}/{section}. The
// section must be an entry of the user's menu.
func (h *PortalHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	role := user.RoleOrGuest()

	key := chi.URLParam(r, "section")
	if key == "" {
		if menu := h.composer.Menus().Menu(role); len(menu) > 0 {
			key = menu[0].Key
		}
	}

	item, ok := h.composer.Menus().Section(role, key)
	if !ok {
		HandleServiceError(w, services.ErrSectionNotFound.Wrap(nil).WithDetail("section", key), h.logger)
		return
	}

	layout, _ := h.composer.ComposeSection(user, item.Key, PageContent{
		Title:   item.Label,
		Section: item.Key,
	})
	_ = utils.WriteOK(w, layout)
}

// HandleListAccounts handles GET /admin/accounts
func (h *PortalHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	accounts := h.accounts.List(r.Context())

	layout, ok := h.composer.ComposeSection(user, "accounts", PageContent{
		Title:   "Accounts",
		Section: "accounts",
		Data:    accounts,
	})
	if !ok {
		layout = h.composer.Compose(user, PageContent{Title: "Accounts", Data: accounts})
	}
	_ = utils.WriteOK(w, layout)
}

// HandleGetAccount handles GET /admin/accounts/{email}
func (h *PortalHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	account, ok := h.accounts.FindByEmail(r.Context(), email)
	if !ok {
		HandleServiceError(w, services.ErrAccountNotFound.Wrap(nil).WithDetail("email", email), h.logger)
		return
	}

	_ = utils.WriteOK(w, account)
}
