package bigquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

// Legacy and standard SQL spellings accepted in the object schema form.
var fieldTypeAliases = map[string]bigquery.FieldType{
	"INT64":   bigquery.IntegerFieldType,
	"FLOAT64": bigquery.FloatFieldType,
	"BOOL":    bigquery.BooleanFieldType,
	"STRUCT":  bigquery.RecordFieldType,
	"DECIMAL": bigquery.NumericFieldType,
}

// SchemaFromFile reads a table schema from a JSON file on fsys.
// See ParseSchema for the accepted forms.
func SchemaFromFile(fsys billy.Filesystem, path string) (bigquery.Schema, error) {
	const op = "bigquery.SchemaFromFile"
	if strings.TrimSpace(path) == "" {
		return nil, gcperrors.Invalid(op, "", "schema path cannot be empty")
	}

	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, gcperrors.New(op, path, err)
	}

	schema, err := ParseSchema(data)
	if err != nil {
		return nil, gcperrors.New(op, path, err)
	}
	return schema, nil
}

// ParseSchema parses a table schema in one of two JSON forms:
//
//   - the list form written by "bq show --schema", e.g.
//     [{"name": "id", "type": "INTEGER", "mode": "REQUIRED"}]
//   - an object mapping column names to types, e.g. {"id": "INTEGER", "name": "STRING"}.
//     Columns keep the order in which they appear in the document.
func ParseSchema(data []byte) (bigquery.Schema, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: schema document is empty", gcperrors.ErrInvalidInput)
	}

	switch trimmed[0] {
	case '[':
		schema, err := bigquery.SchemaFromJSON(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gcperrors.ErrInvalidInput, err)
		}
		return schema, nil
	case '{':
		return parseObjectSchema(trimmed)
	default:
		return nil, fmt.Errorf("%w: schema must be a JSON array or object", gcperrors.ErrInvalidInput)
	}
}

// parseObjectSchema walks the object token by token since decoding into a map
// would lose column order.
func parseObjectSchema(data []byte) (bigquery.Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", gcperrors.ErrInvalidInput, err)
	}

	var schema bigquery.Schema
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gcperrors.ErrInvalidInput, err)
		}
		name, _ := tok.(string)

		var typ string
		if err := dec.Decode(&typ); err != nil {
			return nil, fmt.Errorf("%w: type of column %q must be a string: %w", gcperrors.ErrInvalidInput, name, err)
		}

		ft, err := fieldType(typ)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		schema = append(schema, &bigquery.FieldSchema{Name: name, Type: ft})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", gcperrors.ErrInvalidInput, err)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: schema has no columns", gcperrors.ErrInvalidInput)
	}
	return schema, nil
}

func fieldType(s string) (bigquery.FieldType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if ft, ok := fieldTypeAliases[upper]; ok {
		return ft, nil
	}

	ft := bigquery.FieldType(upper)
	switch ft {
	case bigquery.StringFieldType, bigquery.BytesFieldType, bigquery.IntegerFieldType,
		bigquery.FloatFieldType, bigquery.BooleanFieldType, bigquery.TimestampFieldType,
		bigquery.RecordFieldType, bigquery.DateFieldType, bigquery.TimeFieldType,
		bigquery.DateTimeFieldType, bigquery.NumericFieldType, bigquery.GeographyFieldType,
		bigquery.BigNumericFieldType, bigquery.JSONFieldType:
		return ft, nil
	}
	return "", fmt.Errorf("%w: unknown column type %q", gcperrors.ErrInvalidInput, s)
}
