package prompt

// Option is one selectable choice for a parameter.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// ResolvedEntity is what a provider returns for an option id.
type ResolvedEntity struct {
	Label    string   `json:"label"`
	Keywords []string `json:"keywords,omitempty"`
}

type Palette struct {
	Name            string            `json:"name,omitempty"`
	BackgroundColor string            `json:"backgroundColor"`
	CrayonColors    []string          `json:"crayonColors"`
	Meta            map[string]string `json:"meta,omitempty"`
}
