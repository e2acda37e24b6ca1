package db

import (
	"errors"
	"fmt"
)

// StorageType defines the document storage backend for FT indexes.
type StorageType string

// StorageHash stores documents as Redis hashes. It is the only storage vendors use.
const StorageHash StorageType = "HASH"

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a NUMERIC field (ratings, rates, coordinates).
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a TAG field (flags, category sets).
	IndexFieldTag
	// IndexFieldText is a TEXT field (free-form place names).
	IndexFieldText
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC"
	case IndexFieldTag:
		return "TAG"
	case IndexFieldText:
		return "TEXT"
	default:
		return fmt.Sprintf("IndexFieldType(%d)", int(t))
	}
}

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name  string
	Alias string // AS alias in FT.CREATE SCHEMA
	Type  IndexFieldType

	// TAG options
	TagSeparator     string
	TagCaseSensitive bool

	// Sortable keeps the field in the sorting vector (SORTABLE).
	Sortable bool
	// NoStem disables stemming on TEXT fields (NOSTEM).
	NoStem bool
}

// AttributeName is the name queries use: the alias when set.
func (f *IndexField) AttributeName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (f *IndexField) validate() error {
	if f.Name == "" {
		return errors.New("field name is required")
	}
	switch f.Type {
	case IndexFieldNumeric, IndexFieldTag:
		if f.NoStem {
			return fmt.Errorf("NOSTEM on %s field %s", f.Type, f.AttributeName())
		}
	case IndexFieldText:
	default:
		return fmt.Errorf("field %s: unknown type %s", f.AttributeName(), f.Type)
	}
	if f.Type != IndexFieldTag && (f.TagSeparator != "" || f.TagCaseSensitive) {
		return fmt.Errorf("tag options on %s field: %s", f.Type, f.AttributeName())
	}
	if len(f.TagSeparator) > 1 {
		return fmt.Errorf("field %s: tag separator must be a single character", f.AttributeName())
	}
	return nil
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// HasText reports whether any field is TEXT.
func (idx *IndexDefinition) HasText() bool {
	for i := range idx.Fields {
		if idx.Fields[i].Type == IndexFieldText {
			return true
		}
	}
	return false
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if err := f.validate(); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		name := f.AttributeName()
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field name: %s", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// IsValidIdentifier reports whether s is non-empty and made of [a-zA-Z0-9_:-].
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
