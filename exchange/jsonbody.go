package exchange

import "github.com/sthagen/ducaale-xh/input"

// JSONBody is the ordered top-level object of a JSON request. Nested
// objects from ":=" items are *input.JSONObject and keep their order too.
type JSONBody struct {
	*input.JSONObject
}

func NewJSONBody() *JSONBody {
	return &JSONBody{JSONObject: input.NewJSONObject()}
}
