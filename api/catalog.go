package api

// Language is a leaf node of the genealogical classification: a language
// proper, as opposed to a family or subgroup. Languages are created by the
// catalog importer and are immutable during sampling.
type Language struct {
	// Glottocode is the stable unique identifier (e.g., "stan1293").
	Glottocode string `json:"glottocode"`
	// ISO is the ISO 639-3 code, possibly empty.
	ISO string `json:"iso,omitempty"`
	// Name of the language.
	Name string `json:"name"`
	// Latitude and Longitude of the representative point, zero when unknown.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	// Genus is the name of the owning genus, empty when unclassified.
	Genus string `json:"genus,omitempty"`
	// Macroarea is the name of the owning macroarea, empty when unknown.
	Macroarea string `json:"macroarea,omitempty"`
}

// Genus is a mid-level genealogical grouping, the stratification unit below
// macroarea. A genus may touch several macroareas through its languages.
type Genus struct {
	Name string `json:"name"`
	// Languages holds the glottocodes of member languages.
	Languages []string `json:"languages"`
}

// Source is a bibliographic record documenting a language.
type Source struct {
	Glottocode string `json:"glottocode"`
	Title      string `json:"title"`
	// Year of publication, 0 when unknown.
	Year int `json:"year,omitempty"`
	// Pages is the page count, 0 when unknown.
	Pages int `json:"pages,omitempty"`
	// DocumentType is e.g. "grammar", "dictionary", "grammar_sketch".
	DocumentType string `json:"document_type,omitempty"`
	// DocLanguages are ISO 639-3 codes of the languages the source is written in.
	DocLanguages []string `json:"doc_languages,omitempty"`
}

// TreeNode is one node of the genealogical forest: either an internal
// classification node (family, subgroup) or a language leaf. Parent is a
// plain glottocode back-reference, not ownership; the forest is owned by the
// catalog snapshot.
type TreeNode struct {
	Glottocode string `json:"glottocode"`
	Name       string `json:"name"`
	// Parent is the glottocode of the enclosing group; empty for forest roots.
	Parent string `json:"parent,omitempty"`
	// IsLanguage marks leaf nodes eligible for selection.
	IsLanguage bool `json:"is_language"`
}

// Feature is a typological property from WALS or Grambank.
type Feature struct {
	// Code is the feature identifier (e.g., "1A", "GB020").
	Code string `json:"code"`
	Name string `json:"name"`
	// Source is "WALS" or "Grambank".
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

// FeatureValue is one enumerated value a Feature may take.
type FeatureValue struct {
	FeatureCode string `json:"feature_code"`
	ValueCode   string `json:"value_code"`
	ValueName   string `json:"value_name"`
}

// SourceFilter narrows a source enumeration. Empty fields are no-ops.
type SourceFilter struct {
	// DocumentTypes keeps only sources whose document type is listed.
	DocumentTypes []string
	// DocLanguages keeps only sources written in at least one listed code.
	DocLanguages []string
}
