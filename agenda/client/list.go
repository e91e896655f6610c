package client

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Record is one untyped JSON object returned by the API.
type Record map[string]interface{}

// DecodeList accepts a plain JSON array or a paginated {"results": [...]}
// envelope and returns the records.
func DecodeList(raw json.RawMessage) ([]Record, error) {
	records := []Record{}
	if len(raw) == 0 || string(raw) == "null" {
		return records, nil
	}

	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var page struct {
		Results []Record `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, errors.Wrap(err, "response is neither a list nor a paginated list")
	}
	if page.Results == nil {
		return []Record{}, nil
	}
	return page.Results, nil
}
