package prompt

type ParamType string

const (
	ParamTypeString ParamType = "string"
	ParamTypeArray  ParamType = "array"
)

// ParamSchema describes one template parameter. String nodes use Min/Max
// (length), Regex and Enum; array nodes use MinItems/MaxItems and Items.
type ParamSchema struct {
	Type     ParamType    `json:"type"`
	Min      int          `json:"min,omitempty"`
	Max      int          `json:"max,omitempty"`
	Regex    string       `json:"regex,omitempty"`
	Enum     []string     `json:"enum,omitempty"`
	MinItems int          `json:"minItems,omitempty"`
	MaxItems int          `json:"maxItems,omitempty"`
	Items    *ParamSchema `json:"items,omitempty"`
}

// EnumValues returns the enum of a string param, or of an array param's items.
func (s ParamSchema) EnumValues() []string {
	switch s.Type {
	case ParamTypeString:
		return s.Enum
	case ParamTypeArray:
		if s.Items != nil {
			return s.Items.Enum
		}
	}
	return nil
}

type UIHint struct {
	Widget              string   `json:"widget,omitempty"`
	Label               string   `json:"label,omitempty"`
	Description         string   `json:"description,omitempty"`
	DependsOn           []string `json:"dependsOn,omitempty"`
	SupportsSuggestions bool     `json:"supportsSuggestions,omitempty"`
	Min                 *int     `json:"min,omitempty"`
	Max                 *int     `json:"max,omitempty"`
}

type Template struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	Description         string                 `json:"description,omitempty"`
	ParamsSchema        map[string]ParamSchema `json:"paramsSchema"`
	UIHints             map[string]UIHint      `json:"uiHints,omitempty"`
	ThemeOptions        map[string]string      `json:"themeOptions,omitempty"`
	Samples             []string               `json:"samples,omitempty"`
	PromptTemplate      string                 `json:"promptTemplate,omitempty"`
	Defaults            map[string]any         `json:"defaults,omitempty"`
	TitleTemplate       string                 `json:"titleTemplate,omitempty"`
	DescriptionTemplate string                 `json:"descriptionTemplate,omitempty"`
	Tags                []string               `json:"tags,omitempty"`
	Model               string                 `json:"model,omitempty"`
	Size                string                 `json:"size,omitempty"`
	OutputFormat        string                 `json:"output_format,omitempty"`
	Background          string                 `json:"background,omitempty"`
}

// Public returns a copy safe to expose to clients: the prompt text stays
// server-side.
func (t Template) Public() Template {
	t.PromptTemplate = ""
	return t
}
