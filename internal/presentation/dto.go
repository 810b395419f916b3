package presentation

import (
	"sort"
	"strings"

	"github.com/zjrosen/afb/internal/factory"
	"github.com/zjrosen/afb/internal/registry"
	"github.com/zjrosen/afb/internal/spec"
)

// ClassDTO represents a Registry for presentation
type ClassDTO struct {
	Name      string    `json:"name"`
	Qualified string    `json:"qualified"`
	Default   string    `json:"default,omitempty"`
	Units     []UnitDTO `json:"units"`
}

// UnitDTO represents a construction unit
type UnitDTO struct {
	Key         string     `json:"key"`
	Builtin     bool       `json:"builtin"`
	Description string     `json:"description"`
	Details     string     `json:"details,omitempty"`
	Params      []ParamDTO `json:"params"`
}

// ParamDTO represents one declared parameter
type ParamDTO struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	FullType    string `json:"full_type"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description"`
}

// FromUnit converts a unit registered under key to a DTO
func FromUnit(key string, unit *factory.Factory) UnitDTO {
	sig := unit.Signature()
	defaults := unit.Defaults()
	params := make([]ParamDTO, 0, sig.Len())
	for _, name := range sig.Names() {
		p, _ := sig.Param(name)
		params = append(params, ParamDTO{
			Name:        name,
			Type:        p.Type.String(),
			FullType:    spec.Render(p.Type, spec.QualifiedName),
			Required:    sig.IsRequired(name),
			Default:     defaults[name],
			Description: p.Description,
		})
	}
	return UnitDTO{
		Key:         key,
		Builtin:     strings.HasPrefix(key, registry.ReservedPrefix),
		Description: unit.ShortDescription(),
		Details:     unit.LongDescription(),
		Params:      params,
	}
}

// FromRegistry converts a Registry to a DTO, user units after builtins
func FromRegistry(r *registry.Registry) ClassDTO {
	keys := r.Keys()
	units := make([]UnitDTO, 0, len(keys))
	for _, key := range keys {
		unit, err := r.Get(key)
		if err != nil {
			continue
		}
		units = append(units, FromUnit(key, unit))
	}
	def, _ := r.Default()
	return ClassDTO{
		Name:      spec.ShortName(r.Class()),
		Qualified: spec.QualifiedName(r.Class()),
		Default:   def,
		Units:     units,
	}
}

// FromDirectory converts every Registry of d, sorted by qualified name
func FromDirectory(d *registry.Directory) []ClassDTO {
	classes := d.Classes()
	dtos := make([]ClassDTO, 0, len(classes))
	for _, cls := range classes {
		if r, ok := d.Get(cls); ok {
			dtos = append(dtos, FromRegistry(r))
		}
	}
	sort.SliceStable(dtos, func(i, j int) bool { return dtos[i].Qualified < dtos[j].Qualified })
	return dtos
}
