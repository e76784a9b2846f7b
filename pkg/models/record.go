package models

// ProjectRecord is one project entry fetched from the record store.
// It is treated as immutable for the duration of a pipeline run.
type ProjectRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Stage       string            `json:"stage,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"` // remaining plain-text properties keyed by store name
}
