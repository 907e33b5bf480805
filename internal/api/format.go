package api

import (
	"io"

	"github.com/danielgtaylor/huma/v2"
	jsoniter "github.com/json-iterator/go"
)

// jsonAPI mirrors encoding/json behavior without HTML escaping, like huma's default format.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

var jsonFormat = huma.Format{
	Marshal: func(w io.Writer, v any) error {
		return jsonAPI.NewEncoder(w).Encode(v)
	},
	Unmarshal: jsonAPI.Unmarshal,
}
