package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/joust-league/models"
	"github.com/Dosada05/joust-league/storage"
)

// extensionFromContentType maps an image content type to a file extension for
// emblem storage keys.
func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			// Strip suffixes like "+xml" (image/svg+xml).
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type %q", contentType)
	}
}

// populateEmblemURL fills the team's public emblem URL from its storage key.
func populateEmblemURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil || team.EmblemKey == nil || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*team.EmblemKey); url != "" {
		team.EmblemURL = &url
	}
}
