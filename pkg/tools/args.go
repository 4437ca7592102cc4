package tools

import (
	"github.com/mitchellh/mapstructure"
)

// decodeArgs decodes loosely typed tool arguments into out.
// Unknown keys and type mismatches are reported as *ArgsError.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return &ArgsError{Msg: err.Error()}
	}
	return nil
}
