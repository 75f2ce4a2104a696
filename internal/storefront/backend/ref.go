package backend

import (
	"bytes"
	"encoding/json"
)

// Ref is a reference the backend sends either as a bare id string or as a
// populated document such as {"_id": "...", "name": "..."}.
type Ref struct {
	ID   string
	Name string
	Slug string
}

// Label returns the name when populated, falling back to the id.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// IsZero reports whether the reference carries nothing.
func (r Ref) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	var doc struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	name := doc.Name
	if name == "" {
		name = doc.Title
	}
	*r = Ref{ID: doc.ID, Name: name, Slug: doc.Slug}
	return nil
}

// MarshalJSON writes the id only, which is what the backend accepts on input.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}
