package generation

import (
	"encoding/json"
	"strings"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

const seamlessInstructions = "You must generate a true seamless tile. Edges must match perfectly on all sides. " +
	"No borders, no seams, repeatable pattern. Square format. " +
	"No logos, no watermarks, no signatures. " +
	"No text unless explicitly required by the theme."

// BuildPrompt assembles the image prompt. Only sanitized values reach the
// INPUT_JSON payload.
func BuildPrompt(t prompt.Template, safeInput map[string]any) (string, error) {
	b, err := json.Marshal(safeInput)
	if err != nil {
		return "", err
	}
	parts := []string{seamlessInstructions}
	if p := strings.TrimSpace(t.PromptTemplate); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, "\n") + "\nINPUT_JSON=" + string(b), nil
}
