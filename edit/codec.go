package edit

import (
	"encoding/json"
	"fmt"
)

// Edits serialize as objects with a "type" discriminator next to their fields.

func (e *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{KindText, (*plain)(e)})
}

func (e *Drawing) MarshalJSON() ([]byte, error) {
	type plain Drawing
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{KindDrawing, (*plain)(e)})
}

func (e *Highlight) MarshalJSON() ([]byte, error) {
	type plain Highlight
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{KindHighlight, (*plain)(e)})
}

// Marshal encodes edits as a JSON array.
func Marshal(edits []Edit) ([]byte, error) {
	if edits == nil {
		edits = []Edit{}
	}
	return json.Marshal(edits)
}

// Unmarshal decodes an array written by Marshal.
func Unmarshal(data []byte) ([]Edit, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode edits: %w", err)
	}
	out := make([]Edit, 0, len(raws))
	for i, r := range raws {
		e, err := decodeOne(r)
		if err != nil {
			return nil, fmt.Errorf("decode edit %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeOne(r json.RawMessage) (Edit, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(r, &head); err != nil {
		return nil, err
	}
	var e Edit
	switch head.Type {
	case KindText:
		e = &Text{}
	case KindDrawing:
		e = &Drawing{}
	case KindHighlight:
		e = &Highlight{}
	default:
		return nil, fmt.Errorf("unknown edit type %q", head.Type)
	}
	if err := json.Unmarshal(r, e); err != nil {
		return nil, err
	}
	return e, nil
}
