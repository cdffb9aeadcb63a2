package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// ImplResponse is what every handler body returns.
type ImplResponse struct {
	Code int
	Body any
}

func Response(code int, body any) ImplResponse {
	return ImplResponse{Code: code, Body: body}
}

// EncodeJSONResponse writes body as JSON with the given status.
func EncodeJSONResponse(body any, status int, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if body == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(body)
}

// decodeJSON decodes a request body strictly: unknown fields are rejected.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return NewVErr(errors.Wrap(err, "invalid request body").Error(), "")
	}
	return nil
}
