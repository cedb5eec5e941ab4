package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// Entity is the subject of an assessment, usually a country. Key is the
// normalized lookup form; Name preserves what the caller sent.
type Entity struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

var keyFolder = cases.Fold()

// NormalizeEntityKey trims surrounding whitespace, collapses internal runs
// of whitespace to single spaces, and case-folds the result so that
// "  United   States " and "united states" share one key.
func NormalizeEntityKey(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return keyFolder.String(strings.Join(fields, " "))
}

// NewEntity builds an Entity from a raw name. An empty Key means the name
// was blank and must be rejected by the caller.
func NewEntity(name string) Entity {
	return Entity{
		Name: strings.Join(strings.Fields(name), " "),
		Key:  NormalizeEntityKey(name),
	}
}

// Slug returns a filesystem- and ID-safe form of the entity key.
func (e Entity) Slug() string {
	return strings.ReplaceAll(e.Key, " ", "_")
}
