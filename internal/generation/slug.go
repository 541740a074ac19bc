package generation

import (
	"strings"

	"github.com/google/uuid"
)

// Slugify reduces s to lowercase ASCII words joined by hyphens.
func Slugify(s string) string {
	return strings.ReplaceAll(NormalizeText(s), " ", "-")
}

// DetailURL is the public page of a tile: /u/<username or id>/<tileID>[-<slug>].
func DetailURL(username string, ownerID, tileID uuid.UUID, title string) string {
	handle := strings.TrimSpace(username)
	if handle == "" {
		handle = ownerID.String()
	}
	u := "/u/" + handle + "/" + tileID.String()
	if slug := Slugify(title); slug != "" {
		u += "-" + slug
	}
	return u
}
