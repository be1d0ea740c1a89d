package catalog

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/glottolab/areal/api"
	_ "modernc.org/sqlite"
)

// OpenSQLite loads a full catalog snapshot from the importer's SQLite
// database. The whole catalog is read once into memory; the database is not
// touched again after this returns. One streaming pass per table keeps only
// one scanned row alive at a time.
//
// Expected schema (as written by the CLDF importer): groups, genera,
// macroareas, features, feature_values, language_features, sources.
func OpenSQLite(dbPath string) (*Snapshot, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	b := NewBuilder()
	if err := loadLanguages(db, b); err != nil {
		return nil, err
	}
	if err := loadTreeNodes(db, b); err != nil {
		return nil, err
	}
	if err := loadFeatures(db, b); err != nil {
		return nil, err
	}
	if err := loadSources(db, b); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func loadLanguages(db *sql.DB, b *Builder) error {
	rows, err := db.Query(`
		SELECT g.glottocode, g.iso, g.name, g.latitude, g.longitude,
		       ge.name, m.name
		FROM groups g
		LEFT JOIN genera ge ON ge.id = g.genus_id
		LEFT JOIN macroareas m ON m.id = g.macroarea_id
		WHERE g.is_language = 1`)
	if err != nil {
		return fmt.Errorf("query languages: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var glottocode string
		var iso, name, lat, lon, genus, area sql.NullString
		if err := rows.Scan(&glottocode, &iso, &name, &lat, &lon, &genus, &area); err != nil {
			return fmt.Errorf("scan language row: %w", err)
		}
		b.AddLanguage(api.Language{
			Glottocode: glottocode,
			ISO:        iso.String,
			Name:       name.String,
			Latitude:   parseCoord(lat),
			Longitude:  parseCoord(lon),
			Genus:      genus.String,
			Macroarea:  area.String,
		})
	}
	return rows.Err()
}

func loadTreeNodes(db *sql.DB, b *Builder) error {
	rows, err := db.Query(`
		SELECT glottocode, name, closest_supergroup, is_language
		FROM groups`)
	if err != nil {
		return fmt.Errorf("query tree nodes: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var glottocode string
		var name, parent sql.NullString
		var isLanguage bool
		if err := rows.Scan(&glottocode, &name, &parent, &isLanguage); err != nil {
			return fmt.Errorf("scan tree node row: %w", err)
		}
		b.AddTreeNode(api.TreeNode{
			Glottocode: glottocode,
			Name:       name.String,
			Parent:     parent.String,
			IsLanguage: isLanguage,
		})
	}
	return rows.Err()
}

func loadFeatures(db *sql.DB, b *Builder) error {
	rows, err := db.Query(`SELECT code, name, source, description FROM features`)
	if err != nil {
		return fmt.Errorf("query features: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore
	for rows.Next() {
		var code, name, source string
		var desc sql.NullString
		if err := rows.Scan(&code, &name, &source, &desc); err != nil {
			return fmt.Errorf("scan feature row: %w", err)
		}
		b.AddFeature(api.Feature{Code: code, Name: name, Source: source, Description: desc.String})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	vrows, err := db.Query(`SELECT feature_code, value_code, value_name FROM feature_values`)
	if err != nil {
		return fmt.Errorf("query feature values: %w", err)
	}
	defer func() { _ = vrows.Close() }() // safe to ignore
	for vrows.Next() {
		var fc, vc, vn string
		if err := vrows.Scan(&fc, &vc, &vn); err != nil {
			return fmt.Errorf("scan feature value row: %w", err)
		}
		b.AddFeatureValue(api.FeatureValue{FeatureCode: fc, ValueCode: vc, ValueName: vn})
	}
	if err := vrows.Err(); err != nil {
		return err
	}

	arows, err := db.Query(`SELECT language_glottocode, feature_code, value_code FROM language_features`)
	if err != nil {
		return fmt.Errorf("query language features: %w", err)
	}
	defer func() { _ = arows.Close() }() // safe to ignore
	for arows.Next() {
		var glottocode, fc, vc string
		if err := arows.Scan(&glottocode, &fc, &vc); err != nil {
			return fmt.Errorf("scan language feature row: %w", err)
		}
		b.SetLanguageFeature(glottocode, fc, vc)
	}
	return arows.Err()
}

func loadSources(db *sql.DB, b *Builder) error {
	rows, err := db.Query(`
		SELECT language_glottocode, title, year, pages, document_type, doc_language_codes
		FROM sources ORDER BY id`)
	if err != nil {
		return fmt.Errorf("query sources: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var glottocode, title string
		var year, pages sql.NullInt64
		var docType, docLangs sql.NullString
		if err := rows.Scan(&glottocode, &title, &year, &pages, &docType, &docLangs); err != nil {
			return fmt.Errorf("scan source row: %w", err)
		}
		b.AddSource(api.Source{
			Glottocode:   glottocode,
			Title:        title,
			Year:         int(year.Int64),
			Pages:        int(pages.Int64),
			DocumentType: docType.String,
			DocLanguages: splitCodes(docLangs.String),
		})
	}
	return rows.Err()
}

// parseCoord tolerates the importer's string-typed coordinate columns.
func parseCoord(s sql.NullString) float64 {
	if !s.Valid {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.String), 64)
	if err != nil {
		return 0
	}
	return v
}

// splitCodes splits the comma-separated doc_language_codes column
// ("eng,rus,fra") into trimmed, non-empty codes.
func splitCodes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
