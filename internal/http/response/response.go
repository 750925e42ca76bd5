package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"jobapply/internal/common"
)

type ErrorCollector interface {
	IncErrors()
}

var collector ErrorCollector

// SetErrorCollector wires the metrics collector so 5xx responses are counted
// at the single place they are written.
func SetErrorCollector(c ErrorCollector) {
	collector = c
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// Error maps an error to its HTTP status and writes the client-facing JSON
// body. The wrapped cause is logged server-side and never sent to the client.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: "internal server error"}

	var appErr *common.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case common.CodeValidation, common.CodeConflict:
			status = http.StatusBadRequest
		case common.CodeNotFound:
			status = http.StatusNotFound
		}
		body.Error = appErr.Message
		body.Fields = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("error", err.Error()))
		if collector != nil {
			collector.IncErrors()
		}
	}
	JSON(w, status, body)
}
