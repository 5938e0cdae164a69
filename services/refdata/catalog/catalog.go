// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianRefData/services/refdata/render"
)

//go:embed defaults.yaml
var defaultConfig []byte

// Sentinel errors for catalog lookups.
var (
	// ErrUnknownEntityType is returned when a lookup names an entity type
	// the catalog has no configuration for.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrUnknownRelationship is returned when a relationship name cannot
	// be found in the catalog.
	ErrUnknownRelationship = errors.New("unknown relationship")
)

// Catalog is the loaded, compiled configuration.
//
// # Thread Safety
//
// All accessors take a read lock so hot reloads (Reload) can swap the
// content atomically. Returned slices must be treated as read-only.
type Catalog struct {
	mu sync.RWMutex

	relationships map[string][]Relationship
	templates     map[string]*render.Template
	primaryIDType map[string]string
	generics      map[string]genericEntity
}

// fileConfig mirrors the YAML document layout.
type fileConfig struct {
	Entities         map[string]genericEntity  `yaml:"entities"`
	SpecificEntities map[string]specificEntity `yaml:"specificEntities"`
	Relationships    map[string][]Relationship `yaml:"relationships"`
}

type genericEntity struct {
	Description string                  `yaml:"description"`
	IDTypes     map[string]idTypeConfig `yaml:"idTypes"`
}

type idTypeConfig struct {
	Inputs []InputField `yaml:"inputs"`
}

type specificEntity struct {
	PrimaryIDType string         `yaml:"primaryIdType"`
	Template      templateConfig `yaml:"template"`
}

type templateConfig struct {
	Header map[string]any `yaml:"header"`
	Footer map[string]any `yaml:"footer"`
	Body   map[string]any `yaml:"body"`
}

// Load reads catalog configuration from path, or from the embedded
// defaults when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultConfig
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog config: %w", err)
		}
	}
	c := &Catalog{}
	if err := c.replace(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads configuration from path and swaps it in atomically.
// On parse failure the previous configuration stays active.
func (c *Catalog) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog config: %w", err)
	}
	return c.replace(data)
}

// replace parses and compiles a config document, then swaps the content.
func (c *Catalog) replace(data []byte) error {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse catalog config: %w", err)
	}

	templates := make(map[string]*render.Template, len(cfg.SpecificEntities))
	primary := make(map[string]string, len(cfg.SpecificEntities))
	for entityType, spec := range cfg.SpecificEntities {
		tpl, err := render.CompileTemplate(
			anyMap(spec.Template.Header),
			anyMap(spec.Template.Footer),
			spec.Template.Body,
		)
		if err != nil {
			return fmt.Errorf("compile template for %s: %w", entityType, err)
		}
		templates[entityType] = tpl
		primary[entityType] = spec.PrimaryIDType
	}

	// A relationship whose target has no template cannot be rendered;
	// warn at load so the gap is visible before traversal skips it.
	for sourceType, rels := range cfg.Relationships {
		for _, rel := range rels {
			if _, ok := templates[rel.TargetType]; !ok {
				slog.Warn("relationship target has no view template",
					"source_type", sourceType,
					"relationship", rel.Name,
					"target_type", rel.TargetType)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.relationships = cfg.Relationships
	c.templates = templates
	c.primaryIDType = primary
	c.generics = cfg.Entities
	return nil
}

// Relationships returns the ordered relationship list for an entity type.
// The result is empty (not an error) for types with no outgoing edges.
func (c *Catalog) Relationships(entityType string) []Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relationships[entityType]
}

// Relationship returns one relationship by source type and name.
func (c *Catalog) Relationship(sourceType, name string) (Relationship, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rel := range c.relationships[sourceType] {
		if rel.Name == name {
			return rel, nil
		}
	}
	return Relationship{}, fmt.Errorf("%w: %s.%s", ErrUnknownRelationship, sourceType, name)
}

// FindRelationship locates a relationship by name, returning its source
// entity type. Used by tree pagination, where callers hold the
// placeholder's relationship name but not the source type. A non-empty
// targetType narrows the search when two source types declare the same
// relationship name.
func (c *Catalog) FindRelationship(name, targetType string) (sourceType string, rel Relationship, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.relationships))
	for t := range c.relationships {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		for _, r := range c.relationships[t] {
			if r.Name == name && (targetType == "" || r.TargetType == targetType) {
				return t, r, nil
			}
		}
	}
	return "", Relationship{}, fmt.Errorf("%w: %s", ErrUnknownRelationship, name)
}

// Template returns the compiled view template for an entity type.
func (c *Catalog) Template(entityType string) (*render.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tpl, ok := c.templates[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
	return tpl, nil
}

// HasTemplate reports whether a view template exists for an entity type.
func (c *Catalog) HasTemplate(entityType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.templates[entityType]
	return ok
}

// PrimaryIDType returns the identifier type that constitutes an entity
// type's primary id (e.g. "instrumentId" for Stock).
func (c *Catalog) PrimaryIDType(entityType string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idType, ok := c.primaryIDType[entityType]
	if !ok || idType == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
	return idType, nil
}

// Metadata builds the queryable-type metadata for the metadata endpoint.
// Output ordering is sorted and deterministic.
func (c *Catalog) Metadata() Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.generics))
	for name := range c.generics {
		names = append(names, name)
	}
	sort.Strings(names)

	var meta Metadata
	for _, name := range names {
		gen := c.generics[name]
		idTypeNames := make([]string, 0, len(gen.IDTypes))
		for idType := range gen.IDTypes {
			idTypeNames = append(idTypeNames, idType)
		}
		sort.Strings(idTypeNames)

		idTypes := make([]IDType, 0, len(idTypeNames))
		for _, idType := range idTypeNames {
			idTypes = append(idTypes, IDType{
				Type:   idType,
				Inputs: gen.IDTypes[idType].Inputs,
			})
		}
		meta.ReferenceDataTypes = append(meta.ReferenceDataTypes, ReferenceDataType{
			RefDataType: name,
			Description: gen.Description,
			IDTypes:     idTypes,
		})
	}
	return meta
}

// anyMap widens a decoded YAML map so nil stays nil for the compiler.
func anyMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}
