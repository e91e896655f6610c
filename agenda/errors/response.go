package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Bodies past this size are not worth parsing for an error message.
const maxErrorBody = 1 << 20

type errorBody struct {
	Detail  interface{}            `json:"detail"`
	Message interface{}            `json:"message"`
	Errors  map[string]interface{} `json:"errors"`
}

// FromResponse builds an *APIError from a non-2xx response. The body is
// consumed but not closed.
func FromResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		apiErr.URL = resp.Request.URL.String()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}

	apiErr.Detail = asString(body.Detail)
	apiErr.Message = asString(body.Message)
	if len(body.Errors) > 0 {
		apiErr.Fields = make(map[string][]string, len(body.Errors))
		for field, v := range body.Errors {
			apiErr.Fields[field] = asStrings(v)
		}
	}

	return apiErr
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Field errors arrive either as a single message or a list of them.
func asStrings(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, m := range t {
			out = append(out, asString(m))
		}
		return out
	default:
		return []string{asString(t)}
	}
}
