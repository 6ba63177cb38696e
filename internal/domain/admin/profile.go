// Package admin contains the access control side of the domain: admin
// profiles, the registry they live in, and scope resolution. Every query
// passes through here before it touches the roster.
package admin

import (
	"sort"
	"strings"

	"github.com/edscope/edscope/internal/domain/shared"
)

// Profile is an admin's visibility envelope. A record is visible only
// when its grade, class, and region all fall inside the profile.
// An empty grade or class set means the admin can see nothing through
// that dimension; profiles are never widened at query time.
type Profile struct {
	ID          string
	DisplayName string
	Grades      []shared.Grade
	Classes     []shared.ClassCode
	Region      shared.Region
}

// NewProfile builds a validated profile. The ID is normalized to lower
// case; grades and classes are de-duplicated and sorted so that scope
// output is stable.
func NewProfile(id, displayName string, grades []shared.Grade, classes []shared.ClassCode, region shared.Region) (*Profile, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if normalized == "" {
		return nil, shared.NewDomainError("admin", "NewProfile", shared.ErrEmptyValue, "admin ID cannot be empty")
	}
	if !region.IsValid() {
		return nil, shared.NewDomainError("admin", "NewProfile", shared.ErrInvalidInput,
			"admin region must be one of the known regions")
	}
	for _, g := range grades {
		if !g.IsValid() {
			return nil, shared.NewDomainError("admin", "NewProfile", shared.ErrValueOutOfRange,
				"admin grade outside 1-12")
		}
	}
	for _, c := range classes {
		if !c.IsValid() {
			return nil, shared.NewDomainError("admin", "NewProfile", shared.ErrInvalidFormat,
				"admin class code is not canonical")
		}
	}
	if displayName == "" {
		displayName = normalized
	}
	return &Profile{
		ID:          normalized,
		DisplayName: displayName,
		Grades:      dedupGrades(grades),
		Classes:     dedupClasses(classes),
		Region:      region,
	}, nil
}

// AllowsGrade reports whether the grade is inside the profile.
func (p *Profile) AllowsGrade(g shared.Grade) bool {
	for _, allowed := range p.Grades {
		if allowed == g {
			return true
		}
	}
	return false
}

// AllowsClass reports whether the class is inside the profile.
func (p *Profile) AllowsClass(c shared.ClassCode) bool {
	for _, allowed := range p.Classes {
		if allowed == c {
			return true
		}
	}
	return false
}

// AllowsRegion reports whether the region matches the profile's region.
func (p *Profile) AllowsRegion(r shared.Region) bool {
	return p.Region.Equal(r)
}

// IsSealed reports whether the profile can never match any record
// because one of its dimension sets is empty.
func (p *Profile) IsSealed() bool {
	return len(p.Grades) == 0 || len(p.Classes) == 0 || p.Region == ""
}

func dedupGrades(grades []shared.Grade) []shared.Grade {
	seen := make(map[shared.Grade]struct{}, len(grades))
	out := make([]shared.Grade, 0, len(grades))
	for _, g := range grades {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func dedupClasses(classes []shared.ClassCode) []shared.ClassCode {
	seen := make(map[shared.ClassCode]struct{}, len(classes))
	out := make([]shared.ClassCode, 0, len(classes))
	for _, c := range classes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
