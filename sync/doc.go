package sync

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// FieldDocRow represents a single row in the field mapping documentation.
type FieldDocRow struct {
	FieldLabel   string // Display label (e.g. "First Name")
	PipedriveKey string // Target record key
	SourcePath   string // Input path without inline modifiers
	Notes        string // Contact field indicator and modifier notes
}

// FieldDocumentation contains the documentation rows for a mapping config.
type FieldDocumentation struct {
	Rows []FieldDocRow
}

// GenerateFieldDocumentation builds documentation from the mapping config,
// preserving mapping order.
func GenerateFieldDocumentation(mappings []FieldMapping) FieldDocumentation {
	doc := FieldDocumentation{Rows: []FieldDocRow{}}

	for _, m := range mappings {
		sourcePath, modifiers := parseSourcePath(m.InputKey)

		notes := []string{}
		if ContactFieldKeys[m.PipedriveKey] {
			notes = append(notes, "Contact field (labelled entries)")
		}
		for _, modifier := range modifiers {
			notes = append(notes, formatModifierNote(modifier))
		}

		doc.Rows = append(doc.Rows, FieldDocRow{
			FieldLabel:   fieldLabel(m.PipedriveKey),
			PipedriveKey: m.PipedriveKey,
			SourcePath:   sourcePath,
			Notes:        strings.Join(notes, " | "),
		})
	}

	return doc
}

// fieldLabel derives a display label from a record key.
// e.g. "first_name" -> "First Name"
func fieldLabel(key string) string {
	words := strings.Split(strcase.ToDelimited(key, ' '), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// parseSourcePath extracts the source path and inline modifiers from a
// mapping input key.
// e.g. "user.country|@countryName" -> ("user.country", ["@countryName"])
func parseSourcePath(value string) (string, []string) {
	parts := strings.Split(value, "|")
	sourcePath := parts[0]
	var modifiers []string

	for i := 1; i < len(parts); i++ {
		if strings.HasPrefix(parts[i], "@") {
			modifiers = append(modifiers, parts[i])
		}
	}

	return sourcePath, modifiers
}

// formatModifierNote formats a path modifier into a human-readable note.
func formatModifierNote(modifier string) string {
	switch {
	case modifier == "@countryName":
		return "Uses @countryName modifier"
	case strings.HasPrefix(modifier, "@phone:"):
		arg := strings.TrimPrefix(modifier, "@phone:")
		return fmt.Sprintf("Uses @phone:%s modifier", arg)
	case modifier == "@lower":
		return "Converts to lowercase"
	case modifier == "@upper":
		return "Converts to uppercase"
	default:
		return fmt.Sprintf("Modifier: %s", modifier)
	}
}

// FormatCSV formats the field documentation as CSV.
func (d FieldDocumentation) FormatCSV() (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Field", "Pipedrive Key", "Source Path", "Notes"}
	if err := writer.Write(headers); err != nil {
		return "", err
	}

	for _, row := range d.Rows {
		record := []string{row.FieldLabel, row.PipedriveKey, row.SourcePath, row.Notes}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
