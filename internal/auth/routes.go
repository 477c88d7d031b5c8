package auth

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutesYAML []byte

// Route is one page of the browser app.
type Route struct {
	Path  string `yaml:"path" json:"path"`
	Label string `yaml:"label" json:"label"`
	Group string `yaml:"group" json:"group"`
	Roles []Role `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// Section is a protected area sharing a layout and a default allow-list.
type Section struct {
	Prefix string  `yaml:"prefix"`
	Index  string  `yaml:"index"`
	Roles  []Role  `yaml:"roles"`
	Routes []Route `yaml:"routes"`
}

// RouteTable holds every route the guard knows about.
type RouteTable struct {
	Public   []string  `yaml:"public"`
	Sections []Section `yaml:"sections"`
}

// Resolution is the guard outcome for a requested path.
type Resolution struct {
	Requested string `json:"requested"`
	Path      string `json:"path"`
	Decision
}

// NavGroup is a labelled block of navigation links.
type NavGroup struct {
	Label string  `json:"label"`
	Items []Route `json:"items"`
}

// DefaultRoutes parses the embedded route table.
func DefaultRoutes() (*RouteTable, error) {
	return ParseRoutes(defaultRoutesYAML)
}

// LoadRoutes reads a route table from a YAML file.
func LoadRoutes(path string) (*RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes and validates a YAML route table.
func ParseRoutes(data []byte) (*RouteTable, error) {
	var table RouteTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route table YAML: %w", err)
	}
	for _, s := range table.Sections {
		if err := validRoles(s.Roles); err != nil {
			return nil, fmt.Errorf("section %s: %w", s.Prefix, err)
		}
		for _, r := range s.Routes {
			if !strings.HasPrefix(r.Path, s.Prefix+"/") {
				return nil, fmt.Errorf("route %s is outside section %s", r.Path, s.Prefix)
			}
			if err := validRoles(r.Roles); err != nil {
				return nil, fmt.Errorf("route %s: %w", r.Path, err)
			}
		}
	}
	return &table, nil
}

func validRoles(roles []Role) error {
	for _, r := range roles {
		if !r.Valid() {
			return fmt.Errorf("unknown role %q", r)
		}
	}
	return nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// Resolve applies the guard to a requested path. Section roots redirect to
// their index page first; unknown paths are reported as not found.
func (t *RouteTable) Resolve(requested string, session *SessionUser) Resolution {
	path := normalizePath(requested)
	res := Resolution{Requested: requested, Path: path}

	if slices.Contains(t.Public, path) {
		res.Decision = Decision{Allowed: true, Reason: ReasonAllowed}
		return res
	}

	for _, s := range t.Sections {
		if path == s.Prefix && s.Index != "" {
			path = s.Index
			res.Path = path
		}
		for _, r := range s.Routes {
			if r.Path != path {
				continue
			}
			res.Decision = Guard(session, r.effectiveRoles(s)...)
			return res
		}
	}

	res.Decision = Decision{Reason: ReasonNotFound}
	return res
}

func (r Route) effectiveRoles(s Section) []Role {
	if len(r.Roles) > 0 {
		return r.Roles
	}
	return s.Roles
}

// NavItems returns the navigation visible to role, grouped in table order.
func (t *RouteTable) NavItems(role Role) []NavGroup {
	var groups []NavGroup
	index := map[string]int{}
	for _, s := range t.Sections {
		for _, r := range s.Routes {
			if !slices.Contains(r.effectiveRoles(s), role) {
				continue
			}
			i, ok := index[r.Group]
			if !ok {
				i = len(groups)
				index[r.Group] = i
				groups = append(groups, NavGroup{Label: r.Group})
			}
			groups[i].Items = append(groups[i].Items, r)
		}
	}
	return groups
}
