package memory

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/repositories"
	"github.com/upb/coe-portal/services"
	"github.com/upb/coe-portal/utils"
	"gopkg.in/yaml.v3"
)

// DefaultAccounts returns the built-in mock account table
func DefaultAccounts() []*models.User {
	return []*models.User{
		{
			ID:          "ADM001",
			Name:        "Dr. Ravi Kumar",
			Email:       "admin@jain.com",
			Role:        models.RoleAdmin,
			Department:  "Center of Excellence",
			Designation: "Director",
		},
		{
			ID:          "FAC001",
			Name:        "Dr. Meera Nair",
			Email:       "faculty@jain.com",
			Role:        models.RoleFaculty,
			Department:  "Computer Science and Engineering",
			Designation: "Associate Professor",
		},
		{
			ID:         "STU001",
			Name:       "Arjun Sharma",
			Email:      "student@jain.com",
			Role:       models.RoleStudent,
			Department: "Computer Science and Engineering",
		},
		{
			ID:    "GST001",
			Name:  "Visitor",
			Email: "guest@jain.com",
			Role:  models.RoleGuest,
		},
	}
}

// AccountDirectory is an immutable in-memory account table keyed by
// normalised email. It is safe for concurrent use because it is never
// written after construction.
type AccountDirectory struct {
	byEmail map[string]*models.User
	ordered []*models.User
}

// NewAccountDirectory builds a directory from the given accounts. Entries are
// validated and emails must be unique ignoring case.
func NewAccountDirectory(accounts []*models.User) (*AccountDirectory, error) {
	d := &AccountDirectory{
		byEmail: make(map[string]*models.User, len(accounts)),
		ordered: make([]*models.User, 0, len(accounts)),
	}

	for i, acct := range accounts {
		if acct == nil {
			return nil, services.ErrInvalidAccount.Wrap(nil).WithDetail("index", i)
		}
		u := acct.Clone()
		u.Email = models.NormalizeEmail(u.Email)

		if err := utils.ValidateStruct(u); err != nil {
			return nil, services.ErrInvalidAccount.Wrap(err).
				WithDetail("index", i).
				WithDetail("fields", utils.GetValidationFields(err))
		}
		if _, exists := d.byEmail[u.Email]; exists {
			return nil, services.ErrDuplicateEmail.Wrap(nil).WithDetail("email", u.Email)
		}

		d.byEmail[u.Email] = u
		d.ordered = append(d.ordered, u)
	}

	sort.Slice(d.ordered, func(i, j int) bool {
		return d.ordered[i].Email < d.ordered[j].Email
	})

	return d, nil
}

// NewDefaultAccountDirectory builds the directory from DefaultAccounts
func NewDefaultAccountDirectory() *AccountDirectory {
	d, err := NewAccountDirectory(DefaultAccounts())
	if err != nil {
		panic(fmt.Sprintf("default account table is invalid: %v", err))
	}
	return d
}

var _ repositories.AccountDirectory = (*AccountDirectory)(nil)

// FindByEmail looks up an account by email, ignoring case
func (d *AccountDirectory) FindByEmail(_ context.Context, email string) (*models.User, bool) {
	u, ok := d.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// List returns copies of all accounts ordered by email
func (d *AccountDirectory) List(_ context.Context) []*models.User {
	out := make([]*models.User, 0, len(d.ordered))
	for _, u := range d.ordered {
		out = append(out, u.Clone())
	}
	return out
}

// Len returns the number of accounts
func (d *AccountDirectory) Len() int {
	return len(d.ordered)
}

// accountsFile is the on-disk layout of an accounts YAML file
type accountsFile struct {
	Accounts []*models.User `yaml:"accounts"`
}

// LoadAccountsFile reads an accounts YAML file and builds a directory from it
func LoadAccountsFile(path string) (*AccountDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	return ParseAccounts(data)
}

// ParseAccounts builds a directory from YAML bytes
func ParseAccounts(data []byte) (*AccountDirectory, error) {
	var f accountsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid accounts file", err)
	}
	if len(f.Accounts) == 0 {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "accounts file has no accounts", nil)
	}
	return NewAccountDirectory(f.Accounts)
}
