// Package decode turns loosely shaped records coming from JSON or YAML
// documents into the typed entities of the core package. Every default
// applied to a missing field lives in this package.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cassa/internal/core"
)

type (
	// Record is one raw entity as found in a document.
	Record map[string]any

	// Document is a whole snapshot file. Categories may be a flat list or a
	// mapping of kind to list.
	Document struct {
		Pools          []Record `json:"pools" yaml:"pools"`
		Categories     any      `json:"categories" yaml:"categories"`
		Movements      []Record `json:"movements" yaml:"movements"`
		Members        []Record `json:"members" yaml:"members"`
		Markets        []Record `json:"markets" yaml:"markets"`
		Exhibitors     []Record `json:"exhibitors" yaml:"exhibitors"`
		Participations []Record `json:"participations" yaml:"participations"`
	}
)

// ParseJSON reads a JSON document, keeping numbers exact.
func ParseJSON(data []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("parse json document: %w", err)
	}
	return doc, nil
}

// ParseYAML reads a YAML document.
func ParseYAML(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse yaml document: %w", err)
	}
	return doc, nil
}

// ReadFile loads a document, choosing the format from the extension.
// Unknown extensions try YAML first, then JSON.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	}
	doc, err := ParseYAML(data)
	if err != nil {
		if jdoc, jerr := ParseJSON(data); jerr == nil {
			return jdoc, nil
		}
		return Document{}, err
	}
	return doc, nil
}

// Ledger decodes the ledger half of a document.
func (d Document) Ledger() (core.LedgerSnapshot, error) {
	var snap core.LedgerSnapshot
	for i, r := range d.Pools {
		p, err := Pool(r)
		if err != nil {
			return core.LedgerSnapshot{}, at("pools", i, err)
		}
		snap.Pools = append(snap.Pools, p)
	}
	cats, err := categories(d.Categories)
	if err != nil {
		return core.LedgerSnapshot{}, err
	}
	snap.Categories = cats
	for i, r := range d.Members {
		m, err := Member(r)
		if err != nil {
			return core.LedgerSnapshot{}, at("members", i, err)
		}
		snap.Members = append(snap.Members, m)
	}
	for i, r := range d.Movements {
		m, err := Movement(r)
		if err != nil {
			return core.LedgerSnapshot{}, at("movements", i, err)
		}
		snap.Movements = append(snap.Movements, m)
	}
	return snap, nil
}

// MarketSnapshot decodes the market half of a document.
func (d Document) MarketSnapshot() (core.MarketSnapshot, error) {
	var snap core.MarketSnapshot
	for i, r := range d.Markets {
		m, err := Market(r)
		if err != nil {
			return core.MarketSnapshot{}, at("markets", i, err)
		}
		snap.Markets = append(snap.Markets, m)
	}
	for i, r := range d.Exhibitors {
		x, err := Exhibitor(r)
		if err != nil {
			return core.MarketSnapshot{}, at("exhibitors", i, err)
		}
		snap.Exhibitors = append(snap.Exhibitors, x)
	}
	for i, r := range d.Participations {
		p, err := Participation(r)
		if err != nil {
			return core.MarketSnapshot{}, at("participations", i, err)
		}
		snap.Participations = append(snap.Participations, p)
	}
	return snap, nil
}

// categories accepts either a list of records carrying their own kind or a
// mapping {inflow: [...], outflow: [...]}.
func categories(raw any) ([]core.Category, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]core.Category, 0, len(v))
		for i, item := range v {
			r, ok := asRecord(item)
			if !ok {
				return nil, at("categories", i, core.Invalid(core.ReasonInvalidValue, "", "category must be an object"))
			}
			c, err := Category(r, "")
			if err != nil {
				return nil, at("categories", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	case map[string]any:
		var out []core.Category
		// Inflow first so registry order is stable across map iteration.
		for _, kind := range []core.Kind{core.Inflow, core.Outflow} {
			items, ok := v[string(kind)].([]any)
			if !ok {
				continue
			}
			for i, item := range items {
				r, ok := asRecord(item)
				if !ok {
					return nil, at("categories."+string(kind), i, core.Invalid(core.ReasonInvalidValue, "", "category must be an object"))
				}
				c, err := Category(r, kind)
				if err != nil {
					return nil, at("categories."+string(kind), i, err)
				}
				out = append(out, c)
			}
		}
		for key := range v {
			if !core.Kind(key).Valid() {
				return nil, core.Invalid(core.ReasonInvalidValue, "categories."+key, "unknown category kind")
			}
		}
		return out, nil
	default:
		return nil, core.Invalid(core.ReasonInvalidValue, "categories", "categories must be a list or a mapping by kind")
	}
}

func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case map[string]any:
		return Record(m), true
	case Record:
		return m, true
	default:
		return nil, false
	}
}

// at prefixes the field of a validation error with its position in the document.
func at(list string, i int, err error) error {
	if ve, ok := err.(*core.ValidationError); ok {
		field := fmt.Sprintf("%s[%d]", list, i)
		if ve.Field != "" {
			field += "." + ve.Field
		}
		return &core.ValidationError{Code: ve.Code, Field: field, Message: ve.Message}
	}
	return fmt.Errorf("%s[%d]: %w", list, i, err)
}
