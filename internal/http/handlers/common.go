package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"jobapply/internal/common"
)

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.NewError(common.CodeValidation, "invalid request body", err)
	}
	return nil
}

// refNoFromPath extracts the path segment at index (zero-based, after
// trimming leading/trailing slashes), e.g. index 2 of
// /api/applications/APP1001/status.
func refNoFromPath(r *http.Request, index int) (string, error) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if index >= len(segments) {
		return "", common.NewValidationError("refNo is required", map[string]string{"refNo": "refNo is missing from the path"})
	}
	refNo, err := url.PathUnescape(segments[index])
	if err != nil || refNo == "" {
		return "", common.NewValidationError("refNo is required", map[string]string{"refNo": "refNo is missing from the path"})
	}
	return refNo, nil
}
