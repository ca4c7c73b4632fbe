package sync

// Label and primary flag applied to every contact entry. There is no
// support for multiple emails or phones per person.
const (
	ContactLabel   = "work"
	ContactPrimary = true
)

// ContactEntry is the labelled shape Pipedrive requires for multi valued
// contact fields (email, phone).
type ContactEntry struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

// ContactField wraps a scalar value into the single entry list Pipedrive
// expects for contact fields. An empty value yields an empty list.
func ContactField(value string) []ContactEntry {
	if value == "" {
		return []ContactEntry{}
	}
	return []ContactEntry{{
		Label:   ContactLabel,
		Value:   value,
		Primary: ContactPrimary,
	}}
}
