package sandbox

import (
	"github.com/dop251/goja"
)

// checkValueSize recursively walks a script's return value enforcing the
// MaxStringSize/MaxArraySize/MaxMapSize limits on every nested value, not
// just the top-level one (§4.J).
func checkValueSize(value goja.Value, limits Limits) error {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil
	}
	return checkExported(value.Export(), limits, 0)
}

const maxCheckDepth = 64

func checkExported(v interface{}, limits Limits, depth int) error {
	if depth > maxCheckDepth {
		return errLimitExceeded("return value nesting too deep")
	}
	switch val := v.(type) {
	case string:
		if len(val) > limits.MaxStringSize {
			return errLimitExceeded("string value exceeds max_string_size")
		}
	case []interface{}:
		if len(val) > limits.MaxArraySize {
			return errLimitExceeded("array value exceeds max_array_size")
		}
		for _, item := range val {
			if err := checkExported(item, limits, depth+1); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		if len(val) > limits.MaxMapSize {
			return errLimitExceeded("object value exceeds max_map_size")
		}
		for _, item := range val {
			if err := checkExported(item, limits, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
