package vendors

import (
	"github.com/kailas-cloud/vendorsearch/internal/db"
	domvendor "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// buildIndex describes the FT index over vendor hashes.
func buildIndex(name, prefix string) (*db.IndexDefinition, error) {
	return db.NewIndex(name, prefix).
		Fields(
			db.TagField(domvendor.FieldActive, ""),
			db.TagField(domvendor.FieldCategories, domvendor.CategorySeparator),
			db.TextField(domvendor.FieldCity),
			db.TextField(domvendor.FieldState),
			db.NumericField(domvendor.FieldRating, true),
			db.NumericField(domvendor.FieldRatingCount, true),
			db.NumericField(domvendor.FieldHourlyRate, true),
			db.NumericField(domvendor.FieldLat, false),
			db.NumericField(domvendor.FieldLng, false),
		).
		Build()
}
