// Package validator checks the shape of scraped payloads before they are accepted.
package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"Orbit/backend/go/internal/models"
)

// ValidationError lists why a payload was rejected.
type ValidationError struct {
	Platform models.Platform
	Reason   string
	Missing  []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s data missing required fields: %s", e.Platform, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s data invalid: %s", e.Platform, e.Reason)
}

var requiredFields = map[models.Platform][]string{
	models.PlatformLinkedIn:  {"name", "url"},
	models.PlatformInstagram: {"username"},
	models.PlatformTikTok:    {"username"},
}

// Validate reports whether raw is an acceptable profile payload for platform.
func Validate(raw json.RawMessage, platform models.Platform) bool {
	return Check(raw, platform) == nil
}

// Check validates a profile payload. The payload must be a JSON object whose
// required fields are truthy. Platforms without rules accept any object.
func Check(raw json.RawMessage, platform models.Platform) error {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return &ValidationError{Platform: platform, Reason: "payload is not a JSON object"}
	}

	var missing []string
	for _, field := range requiredFields[platform] {
		if !truthy(obj[field]) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Platform: platform, Missing: missing}
	}
	return nil
}

// CheckPosts validates a posts payload: a JSON array of objects. An empty array is valid.
func CheckPosts(raw json.RawMessage, platform models.Platform) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return &ValidationError{Platform: platform, Reason: "posts payload is not a JSON array"}
	}
	for i, item := range items {
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			return &ValidationError{Platform: platform, Reason: fmt.Sprintf("post %d is not a JSON object", i)}
		}
	}
	return nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}
