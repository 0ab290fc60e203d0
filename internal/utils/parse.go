package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs parses model-produced text into T.
//
// Scalars go through strconv; floats also accept a decimal comma ("15,5").
// Anything else is decoded as JSON after stripping a Markdown code fence, and
// JSON that does not decode (single quotes, unquoted keys, trailing commas,
// truncation) is repaired with jsonrepair and decoded again.
//
//	args, err := ParseStringAs[SumInput](`{a: 2, 'b': 3,}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		target.SetString(content)

	case reflect.Bool:
		val, err := strconv.ParseBool(content)
		if err != nil {
			return result, fmt.Errorf("parse %q as bool: %w", content, err)
		}
		target.SetBool(val)

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(normalizeDecimal(content), 64)
		if err != nil {
			return result, fmt.Errorf("parse %q as float: %w", content, err)
		}
		target.SetFloat(val)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("parse %q as int: %w", content, err)
		}
		target.SetInt(val)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("parse %q as uint: %w", content, err)
		}
		target.SetUint(val)

	default:
		if err := decodeJSON(stripCodeFence(content), &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func decodeJSON[T any](content string, out *T) error {
	err := json.Unmarshal([]byte(content), out)
	if err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return fmt.Errorf("decode %T: %w (repair failed: %v)", *out, err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("decode repaired %T: %w (input %q, repaired %q)", *out, err, content, repaired)
	}
	return nil
}

// normalizeDecimal turns "15,5" into "15.5". Text that already has a dot, or
// more than one comma, is returned unchanged.
func normalizeDecimal(s string) string {
	if strings.Contains(s, ".") || strings.Count(s, ",") != 1 {
		return s
	}
	return strings.Replace(s, ",", ".", 1)
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	if newline := strings.IndexByte(inner, '\n'); newline >= 0 && !strings.ContainsAny(inner[:newline], "{[\"") {
		inner = inner[newline+1:]
	}
	return strings.TrimSpace(inner)
}
