// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provider

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/AleutianRefData/services/refdata/entity"
)

//go:embed dataset/*.json
var defaultDatasets embed.FS

// Record is one raw reference-data record as loaded from a dataset file.
type Record = map[string]any

// InstrumentData groups the instrument-family collections.
type InstrumentData struct {
	Stocks  []Record `json:"stocks"`
	Options []Record `json:"options"`
	Futures []Record `json:"futures"`
	Bonds   []Record `json:"bonds"`
}

// PartyData groups the party-family collections.
type PartyData struct {
	InstrumentParties []Record `json:"instrumentParties"`
	Clients           []Record `json:"clients"`
}

// Datasets holds all reference datasets. Loaded once at startup and
// read-only thereafter, so concurrent reads need no locking.
type Datasets struct {
	Instruments InstrumentData
	Listings    []Record
	Exchanges   []Record
	Parties     PartyData
}

// LoadDatasets reads the reference datasets from dir, or from the
// embedded sample data when dir is empty.
//
// Expected files: instruments.json, listings.json, exchanges.json,
// parties.json. A missing file leaves its collection empty; a malformed
// file is a startup error.
func LoadDatasets(dir string) (*Datasets, error) {
	ds := &Datasets{}

	read := func(name string) ([]byte, error) {
		if dir == "" {
			return defaultDatasets.ReadFile("dataset/" + name)
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			return nil, nil
		}
		return data, err
	}

	load := func(name string, dst any) error {
		data, err := read(name)
		if err != nil {
			return fmt.Errorf("read dataset %s: %w", name, err)
		}
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("parse dataset %s: %w", name, err)
		}
		return nil
	}

	if err := load("instruments.json", &ds.Instruments); err != nil {
		return nil, err
	}

	var listings struct {
		Listings []Record `json:"listings"`
	}
	if err := load("listings.json", &listings); err != nil {
		return nil, err
	}
	ds.Listings = listings.Listings

	var exchanges struct {
		Exchanges []Record `json:"exchanges"`
	}
	if err := load("exchanges.json", &exchanges); err != nil {
		return nil, err
	}
	ds.Exchanges = exchanges.Exchanges

	if err := load("parties.json", &ds.Parties); err != nil {
		return nil, err
	}

	return ds, nil
}

// str reads a top-level string field from a record.
func str(rec Record, key string) string {
	v, _ := rec[key].(string)
	return v
}

// path reads a dot-addressed field from a record, returning def when the
// path is absent or empty.
func path(rec Record, p, def string) string {
	v, ok := entity.Lookup(rec, p)
	if !ok {
		return def
	}
	if s, isStr := v.(string); isStr && s != "" {
		return s
	}
	return def
}

// findBy returns the first record whose field matches value.
func findBy(records []Record, field, value string) (Record, bool) {
	if value == "" {
		return nil, false
	}
	for _, rec := range records {
		if str(rec, field) == value {
			return rec, true
		}
	}
	return nil, false
}
