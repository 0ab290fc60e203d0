package graph

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// MergePolicy names the rule used to combine a field of a node's partial
// update with the value already present in the state.
type MergePolicy string

const (
	// PolicyReplace overwrites the previous value with the new one.
	PolicyReplace MergePolicy = "replace"

	// PolicyAppend concatenates the new sequence onto the existing sequence,
	// preserving order.
	PolicyAppend MergePolicy = "append"
)

// ErrUndeclaredField is returned when a state value or update references a
// field that has no merge policy in the schema.
var ErrUndeclaredField = errors.New("undeclared state field")

// mergeFunc combines the current value of a field with an update value.
// current is nil when the field has not been set yet.
type mergeFunc func(current, update any) (any, error)

// Field declares a single state field together with its merge policy.
// Fields are created with [Replace] or [Append] and passed to [NewSchema].
type Field struct {
	name   string
	policy MergePolicy
	merge  mergeFunc
}

// Name returns the field name.
func (field Field) Name() string { return field.name }

// Policy returns the field's merge policy.
func (field Field) Policy() MergePolicy { return field.policy }

// Replace declares a field whose new value overwrites the old one. It is
// used for scalar fields such as "input" and "output".
func Replace(name string) Field {
	return Field{
		name:   name,
		policy: PolicyReplace,
		merge: func(_, update any) (any, error) {
			return update, nil
		},
	}
}

// Append declares a sequence field of element type T. Updates must carry a
// []T (or a single T, treated as a one-element slice); the result is always a
// freshly allocated slice so earlier snapshots never observe later appends.
//
// Example:
//
//	graph.Append[ai.Message]("messages")
func Append[T any](name string) Field {
	elementType := reflect.TypeFor[T]()

	return Field{
		name:   name,
		policy: PolicyAppend,
		merge: func(current, update any) (any, error) {
			var additions []T
			switch value := update.(type) {
			case nil:
			case []T:
				additions = value
			case T:
				additions = []T{value}
			default:
				return nil, fmt.Errorf("field %q expects []%s, got %T", name, elementType, update)
			}

			var existing []T
			if current != nil {
				typed, ok := current.([]T)
				if !ok {
					return nil, fmt.Errorf("field %q holds %T, expected []%s", name, current, elementType)
				}
				existing = typed
			}

			merged := make([]T, 0, len(existing)+len(additions))
			merged = append(merged, existing...)
			merged = append(merged, additions...)
			return merged, nil
		},
	}
}

// Schema is the static declaration of every state field and its merge
// policy. A Schema is immutable once created and may be shared by any number
// of graphs.
type Schema struct {
	fields map[string]Field
	order  []string
}

// NewSchema creates a schema from the given field declarations. It fails if
// a field name is empty or declared twice.
func NewSchema(fields ...Field) (*Schema, error) {
	schema := &Schema{
		fields: make(map[string]Field, len(fields)),
		order:  make([]string, 0, len(fields)),
	}

	var errs []error
	for _, field := range fields {
		if field.name == "" {
			errs = append(errs, errors.New("state field name must not be empty"))
			continue
		}
		if field.merge == nil {
			errs = append(errs, fmt.Errorf("state field %q has no merge policy", field.name))
			continue
		}
		if _, exists := schema.fields[field.name]; exists {
			errs = append(errs, fmt.Errorf("state field %q declared twice", field.name))
			continue
		}
		schema.fields[field.name] = field
		schema.order = append(schema.order, field.name)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid schema: %w", errors.Join(errs...))
	}
	return schema, nil
}

// MustSchema is like [NewSchema] but panics on error. It is intended for
// package-level schema declarations.
func MustSchema(fields ...Field) *Schema {
	schema, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return schema
}

// Has reports whether the field is declared.
func (schema *Schema) Has(name string) bool {
	_, exists := schema.fields[name]
	return exists
}

// Policy returns the merge policy of a declared field.
func (schema *Schema) Policy(name string) (MergePolicy, bool) {
	field, exists := schema.fields[name]
	if !exists {
		return "", false
	}
	return field.policy, true
}

// Fields returns the declared field names in declaration order.
func (schema *Schema) Fields() []string {
	return append([]string(nil), schema.order...)
}

// NewState builds the initial state of a run. Every value is merged onto an
// empty state with its field's policy, so Append fields are type-checked and
// copied. Keys missing from the schema fail with [ErrUndeclaredField].
func (schema *Schema) NewState(values map[string]any) (State, error) {
	empty := State{schema: schema, values: map[string]any{}}
	return empty.Merge(Update(values))
}

// Update is the partial state returned by a node. Only the fields present in
// the map are merged; absent fields keep their previous value.
type Update map[string]any

// State is an immutable snapshot of a run's data. Nodes read it through
// accessors and never mutate it; [State.Merge] produces a new snapshot.
// Slices returned by accessors must be treated as read-only.
type State struct {
	schema *Schema
	values map[string]any
}

// Schema returns the schema the state was built with.
func (state State) Schema() *Schema {
	return state.schema
}

// Get returns the raw value of a field and whether it is set.
func (state State) Get(name string) (any, bool) {
	value, exists := state.values[name]
	return value, exists
}

// Values returns a shallow copy of all set fields.
func (state State) Values() map[string]any {
	values := make(map[string]any, len(state.values))
	for key, value := range state.values {
		values[key] = value
	}
	return values
}

// Merge combines a partial update with the state field by field, according
// to each field's declared policy, and returns the resulting snapshot. The
// receiver is left untouched. Fields are merged in sorted key order so that
// error reporting is deterministic.
func (state State) Merge(update Update) (State, error) {
	if state.schema == nil {
		return State{}, errors.New("state has no schema")
	}

	next := State{
		schema: state.schema,
		values: make(map[string]any, len(state.values)+len(update)),
	}
	for key, value := range state.values {
		next.values[key] = value
	}

	keys := make([]string, 0, len(update))
	for key := range update {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, declared := state.schema.fields[key]
		if !declared {
			return State{}, fmt.Errorf("%w: %q", ErrUndeclaredField, key)
		}
		merged, err := field.merge(next.values[key], update[key])
		if err != nil {
			return State{}, fmt.Errorf("merge field %q (%s): %w", key, field.policy, err)
		}
		next.values[key] = merged
	}

	return next, nil
}

// Decode copies the state into out, which must be a pointer to a struct or
// map. Struct fields are matched by their `mapstructure` tag or, failing
// that, case-insensitively by name.
//
// Example:
//
//	var view struct {
//	    Input  string `mapstructure:"input"`
//	    Output string `mapstructure:"output"`
//	}
//	err := state.Decode(&view)
func (state State) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: false,
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("create state decoder: %w", err)
	}
	if err := decoder.Decode(state.values); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}

// Get returns the value of a field as T. It returns the zero value when the
// field is unset or holds a different type.
func Get[T any](state State, name string) T {
	value, _ := state.values[name].(T)
	return value
}

// Lookup is like [Get] but also reports whether the field held a T.
func Lookup[T any](state State, name string) (T, bool) {
	value, ok := state.values[name].(T)
	return value, ok
}
