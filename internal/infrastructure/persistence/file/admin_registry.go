package file

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edscope/edscope/internal/domain/admin"
	"github.com/edscope/edscope/internal/domain/shared"
)

// registryFile is the on-disk shape of the admin registry.
//
//	admins:
//	  - id: amit
//	    name: Amit
//	    grades: [8]
//	    classes: [8A, 8B]
//	    region: East
type registryFile struct {
	Admins []registryEntry `yaml:"admins"`
}

type registryEntry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Grades  []int    `yaml:"grades"`
	Classes []string `yaml:"classes"`
	Region  string   `yaml:"region"`
}

// LoadAdminRegistry parses a YAML admin registry into the static
// registry the resolver reads from. Profile validation failures abort
// the load: a half-valid registry would silently shrink someone's
// scope.
func LoadAdminRegistry(path string, logger *slog.Logger) (*admin.StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shared.WrapError("admin", "LoadRegistry", shared.ErrNotFound,
			"admin registry file cannot be read", err)
	}

	var parsed registryFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, shared.WrapError("admin", "LoadRegistry", shared.ErrInvalidFormat,
			"admin registry YAML is unreadable", err)
	}
	if len(parsed.Admins) == 0 {
		return nil, shared.NewDomainError("admin", "LoadRegistry", shared.ErrEmptyValue,
			"admin registry has no admins")
	}

	profiles := make([]*admin.Profile, 0, len(parsed.Admins))
	for _, entry := range parsed.Admins {
		profile, err := buildProfile(entry)
		if err != nil {
			return nil, fmt.Errorf("admin %q: %w", entry.ID, err)
		}
		profiles = append(profiles, profile)
	}

	registry, err := admin.NewStaticRegistry(profiles)
	if err != nil {
		return nil, err
	}

	logger.Info("admin registry loaded",
		slog.String("path", path),
		slog.Int("admins", len(profiles)))
	return registry, nil
}

func buildProfile(entry registryEntry) (*admin.Profile, error) {
	grades := make([]shared.Grade, 0, len(entry.Grades))
	for _, g := range entry.Grades {
		grades = append(grades, shared.Grade(g))
	}
	classes := make([]shared.ClassCode, 0, len(entry.Classes))
	for _, c := range entry.Classes {
		code, err := shared.ParseClassCode(c)
		if err != nil {
			return nil, err
		}
		classes = append(classes, code)
	}
	region, err := shared.ParseRegion(entry.Region)
	if err != nil {
		return nil, err
	}
	return admin.NewProfile(entry.ID, entry.Name, grades, classes, region)
}

// BuiltinRegistry returns the demo registry used when no registry file
// is configured: three admins, one per region slice of the sample
// dataset.
func BuiltinRegistry() (*admin.StaticRegistry, error) {
	entries := []registryEntry{
		{ID: "amit", Name: "Amit", Grades: []int{8}, Classes: []string{"8A", "8B"}, Region: "East"},
		{ID: "riya", Name: "Riya", Grades: []int{7}, Classes: []string{"7A"}, Region: "West"},
		{ID: "kabir", Name: "Kabir", Grades: []int{9}, Classes: []string{"9A", "9B"}, Region: "North"},
	}
	profiles := make([]*admin.Profile, 0, len(entries))
	for _, entry := range entries {
		profile, err := buildProfile(entry)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return admin.NewStaticRegistry(profiles)
}
