package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Termicotra/agendamiento/agenda/client"
)

// Filters become query parameters of a list request.
type Filters map[string]string

func (f Filters) values() url.Values {
	if len(f) == 0 {
		return nil
	}
	v := url.Values{}
	for k, val := range f {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Resource is one REST collection of the API. Records are untyped JSON
// objects.
type Resource struct {
	// Name is the command-line name of the collection.
	Name string
	// Module is the permission module guarding it.
	Module  string
	Path    string
	IDField string

	client *client.Client
}

func New(c *client.Client, name, module, path, idField string) *Resource {
	return &Resource{Name: name, Module: module, Path: path, IDField: idField, client: c}
}

func (r *Resource) item(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.Errorf("%s: empty id", r.Name)
	}
	return strings.TrimRight(r.Path, "/") + "/" + url.PathEscape(id) + "/", nil
}

// List returns the records of the collection. Plain arrays and paginated
// {"results": [...]} answers are both accepted.
func (r *Resource) List(ctx context.Context, filters Filters) ([]client.Record, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, client.API, r.Path, filters.values(), &raw); err != nil {
		return nil, err
	}
	return client.DecodeList(raw)
}

func (r *Resource) Get(ctx context.Context, id string) (client.Record, error) {
	path, err := r.item(id)
	if err != nil {
		return nil, err
	}
	out := client.Record{}
	if err := r.client.Get(ctx, client.API, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource) Create(ctx context.Context, rec client.Record) (client.Record, error) {
	out := client.Record{}
	if err := r.client.Post(ctx, client.API, r.Path, rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the record id with rec.
func (r *Resource) Update(ctx context.Context, id string, rec client.Record) (client.Record, error) {
	path, err := r.item(id)
	if err != nil {
		return nil, err
	}
	out := client.Record{}
	if err := r.client.Put(ctx, client.API, path, rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch changes only the given fields of record id.
func (r *Resource) Patch(ctx context.Context, id string, fields client.Record) (client.Record, error) {
	path, err := r.item(id)
	if err != nil {
		return nil, err
	}
	out := client.Record{}
	if err := r.client.Patch(ctx, client.API, path, fields, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource) Delete(ctx context.Context, id string) error {
	path, err := r.item(id)
	if err != nil {
		return err
	}
	return r.client.Delete(ctx, client.API, path)
}

// ByPatient lists the records belonging to patient id.
func (r *Resource) ByPatient(ctx context.Context, id string) ([]client.Record, error) {
	return r.List(ctx, Filters{"paciente": id})
}

// ByProfessional lists the records belonging to professional id.
func (r *Resource) ByProfessional(ctx context.Context, id string) ([]client.Record, error) {
	return r.List(ctx, Filters{"profesional": id})
}

// ID returns the identifier of rec, trying IDField first and then "id".
func (r *Resource) ID(rec client.Record) string {
	for _, field := range []string{r.IDField, "id"} {
		if field == "" {
			continue
		}
		if v, ok := rec[field]; ok && v != nil {
			return Scalar(v)
		}
	}
	return ""
}

// Scalar renders a JSON value for display. Whole numbers lose their decimal
// point.
func Scalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
