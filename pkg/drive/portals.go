package drive

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultBaseFolder is the top folder holding every portal.
const DefaultBaseFolder = "Soporte Documentación"

var ErrUnknownPortal = errors.New("unknown portal or category")

type Portal struct {
	Key  string `json:"key"`
	Desc string `json:"desc"`
}

var Portals = []Portal{
	{Key: "CXM", Desc: "Customer Experience Management"},
	{Key: "SOM", Desc: "Service Operations Management"},
	{Key: "WFM", Desc: "Workforce Management"},
	{Key: "CPQ", Desc: "Configure • Price • Quote"},
	{Key: "SCRIPTS NIVEL 3", Desc: "DataRepairs"},
	{Key: "CASE", Desc: "Gestión de casos e incidencias"},
}

type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var Categories = []Category{
	{Key: "analisis", Label: "Análisis a Nivel 3"},
	{Key: "paso-a-paso", Label: "Paso a Paso"},
	{Key: "tutoriales", Label: "Tutoriales / Guías"},
}

// Slug turns a portal key into its URL form ("SCRIPTS NIVEL 3" -> "scripts-nivel-3").
func Slug(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), "-")
}

func FindPortal(slug string) (Portal, bool) {
	for _, p := range Portals {
		if Slug(p.Key) == slug {
			return p, true
		}
	}
	return Portal{}, false
}

func FindCategory(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// titleFromSlug capitalises each dash-separated word: "scripts-nivel-3" -> "Scripts Nivel 3".
func titleFromSlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// PortalPath is the folder path of one portal category under base.
func PortalPath(base, slug, category string) ([]string, error) {
	if _, ok := FindPortal(slug); !ok {
		return nil, fmt.Errorf("%w: portal %q", ErrUnknownPortal, slug)
	}
	c, ok := FindCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: category %q", ErrUnknownPortal, category)
	}
	if strings.TrimSpace(base) == "" {
		base = DefaultBaseFolder
	}
	return []string{base, titleFromSlug(slug), c.Label}, nil
}
