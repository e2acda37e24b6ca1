package db

import "strings"

// IndexBuilder assembles an IndexDefinition over hashes.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a HASH index named name covering keys with the given prefixes.
func NewIndex(name string, prefixes ...string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{
		Name:        name,
		StorageType: StorageHash,
		Prefixes:    prefixes,
	}}
}

// Fields appends schema fields in order.
func (b *IndexBuilder) Fields(fields ...IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, fields...)
	return b
}

// Build validates the definition and returns a copy of it.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	def := b.def
	def.Prefixes = append([]string(nil), b.def.Prefixes...)
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// NumericField returns a NUMERIC field, SORTABLE when sortable is set.
func NumericField(name string, sortable bool) IndexField {
	return IndexField{Name: name, Type: IndexFieldNumeric, Sortable: sortable}
}

// TagField returns a TAG field split on sep. An empty sep keeps the server default.
func TagField(name, sep string) IndexField {
	return IndexField{Name: name, Type: IndexFieldTag, TagSeparator: sep}
}

// TextField returns an unstemmed TEXT field.
func TextField(name string) IndexField {
	return IndexField{Name: name, Type: IndexFieldText, NoStem: true}
}

// String renders the definition the way FT.CREATE would receive it. Used in logs.
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("FT.CREATE ")
	sb.WriteString(idx.Name)
	if idx.StorageType != "" {
		sb.WriteString(" ON ")
		sb.WriteString(string(idx.StorageType))
	}
	if len(idx.Prefixes) > 0 {
		sb.WriteString(" PREFIX ")
		sb.WriteString(strings.Join(idx.Prefixes, " "))
	}
	sb.WriteString(" SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		sb.WriteString(" ")
		sb.WriteString(f.Name)
		if f.Alias != "" {
			sb.WriteString(" AS ")
			sb.WriteString(f.Alias)
		}
		sb.WriteString(" ")
		sb.WriteString(f.Type.String())
		if f.Sortable {
			sb.WriteString(" SORTABLE")
		}
	}
	return sb.String()
}
