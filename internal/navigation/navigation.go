// Package navigation holds the per-role menus and builds the dashboard shell around every page.
package navigation

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/agrilinkchain/agrilink/internal/models"
)

// ErrUnknownRole is returned for roles without a menu.
var ErrUnknownRole = errors.New("unknown role")

// SignOutPath is where the shell sends an actor after signing out.
const SignOutPath = "/"

//go:embed menus.yaml
var menusYAML []byte

var menus = mustLoad(menusYAML)

// Item is one navigation entry.
type Item struct {
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
	Icon  string `yaml:"icon" json:"icon"`
}

// Entry is an Item as rendered for a given location.
type Entry struct {
	Item
	Active bool `json:"active"`
}

// Shell is the chrome shared by every dashboard page.
type Shell struct {
	Role        models.Role `json:"role"`
	Portal      string      `json:"portal"`
	Nav         []Entry     `json:"nav"`
	DisplayName string      `json:"display_name"`
	Initial     string      `json:"initial"`
	SignOut     string      `json:"sign_out"`
}

func mustLoad(raw []byte) map[models.Role][]Item {
	out, err := parse(raw)
	if err != nil {
		panic(err)
	}
	return out
}

func parse(raw []byte) (map[models.Role][]Item, error) {
	var decoded map[string][]Item
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode menus: %w", err)
	}
	out := make(map[models.Role][]Item, len(decoded))
	for name, items := range decoded {
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("menus: %w", err)
		}
		out[role] = items
	}
	return out, nil
}

// Menu returns a copy of the role's navigation items.
func Menu(role models.Role) ([]Item, error) {
	items, ok := menus[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return append([]Item(nil), items...), nil
}

// Home is the landing path of a role's portal.
func Home(role models.Role) (string, error) {
	items, err := Menu(role)
	if err != nil {
		return "", err
	}
	return items[0].Path, nil
}

// Permitted reports whether path lies inside role's portal.
func Permitted(role models.Role, path string) bool {
	home, err := Home(role)
	if err != nil {
		return false
	}
	return path == home || strings.HasPrefix(path, home+"/")
}

// Build renders the shell for role at currentPath. At most one entry is active.
func Build(role models.Role, currentPath, displayName string) (Shell, error) {
	items, err := Menu(role)
	if err != nil {
		return Shell{}, err
	}
	nav := make([]Entry, len(items))
	for i, item := range items {
		nav[i] = Entry{Item: item, Active: item.Path == currentPath}
	}

	name := strings.TrimSpace(displayName)
	initial := "U"
	if name == "" {
		name = "User"
	} else {
		r, _ := utf8.DecodeRuneInString(name)
		initial = string(unicode.ToUpper(r))
	}

	return Shell{
		Role:        role,
		Portal:      role.Label() + " Portal",
		Nav:         nav,
		DisplayName: name,
		Initial:     initial,
		SignOut:     SignOutPath,
	}, nil
}
