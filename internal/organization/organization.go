package organization

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	organizationDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/organization"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	MaxUsers    int       `json:"max_users"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Website     string    `json:"website"`
	Address     string    `json:"address"`
	UserCount   int64     `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasCapacity reports whether one more member fits under MaxUsers.
func (o *Organization) HasCapacity() bool {
	return o.UserCount < int64(o.MaxUsers)
}

func (o *Organization) ToResponse() OrganizationResponse {
	return OrganizationResponse{
		ID:          o.ID,
		Name:        o.Name,
		Slug:        o.Slug,
		Description: o.Description,
		IsActive:    o.IsActive,
		MaxUsers:    o.MaxUsers,
		UserCount:   o.UserCount,
		Email:       o.Email,
		Phone:       o.Phone,
		Website:     o.Website,
		Address:     o.Address,
		CreatedAt:   o.CreatedAt,
	}
}

var (
	nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
	slugSpacing  = regexp.MustCompile(`[-\s]+`)
	asciiOnly    = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
)

// Slugify folds name to lowercase ASCII words joined by single hyphens.
// "My Org!" becomes "my-org".
func Slugify(name string) string {
	folded, _, err := transform.String(asciiOnly, name)
	if err != nil {
		folded = name
	}
	s := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "")
	s = slugSpacing.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}

func ToDataModel(o *Organization) *organizationDatamodel.Organization {
	return &organizationDatamodel.Organization{
		ID:          o.ID,
		Name:        o.Name,
		Slug:        o.Slug,
		Description: o.Description,
		IsActive:    o.IsActive,
		MaxUsers:    o.MaxUsers,
		Email:       o.Email,
		Phone:       o.Phone,
		Website:     o.Website,
		Address:     o.Address,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func FromDataModel(d *organizationDatamodel.Organization) *Organization {
	return &Organization{
		ID:          d.ID,
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		IsActive:    d.IsActive,
		MaxUsers:    d.MaxUsers,
		Email:       d.Email,
		Phone:       d.Phone,
		Website:     d.Website,
		Address:     d.Address,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
