package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse is returned when the model answer holds no usable layout.
var ErrInvalidResponse = errors.New("invalid layout response")

type response struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	HTML     string          `json:"html"`
	Template json.RawMessage `json:"template"`
}

// parseResponse extracts the JSON object from a model answer. Code fences and
// prose around the object are ignored.
func parseResponse(text string) (response, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return response{}, fmt.Errorf("%w: no JSON object found", ErrInvalidResponse)
	}

	var r response
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(r.HTML) == "" && len(r.Template) == 0 {
		return response{}, fmt.Errorf("%w: neither html nor template present", ErrInvalidResponse)
	}
	return r, nil
}
