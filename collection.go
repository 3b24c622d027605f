package ynab

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/ryanuber/go-glob"
)

// Collection is a resolved relationship: a mapping from entity id to
// entity. Ids are unique within a collection and insertion order carries
// no meaning. Filter operations never mutate the source collection.
type Collection[E any] map[string]E

// MatchMode selects how Find and Filter compare field values.
// Exact equality is the default; containment and glob matching are
// explicit opt-ins, mainly useful for name lookups.
type MatchMode int

// Match mode constants.
const (
	MatchExact MatchMode = iota
	MatchContains
	MatchGlob
)

// IDs returns the collection's ids in sorted order.
func (c Collection[E]) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Find returns the first entity whose named field matches value, scanning
// ids in sorted order. The second return is false when nothing matches.
// A field the entity type does not have is a contract violation and
// returns an error, never a silent skip.
func (c Collection[E]) Find(field string, value any, mode ...MatchMode) (E, bool, error) {
	var zero E
	m := MatchExact
	if len(mode) > 0 {
		m = mode[0]
	}
	for _, id := range c.IDs() {
		ok, err := matchField(c[id], field, value, m)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return c[id], true, nil
		}
	}
	return zero, false, nil
}

// Filter returns a new collection holding every entity whose named field
// matches value. The result may be empty.
func (c Collection[E]) Filter(field string, value any, mode ...MatchMode) (Collection[E], error) {
	m := MatchExact
	if len(mode) > 0 {
		m = mode[0]
	}
	out := make(Collection[E])
	for id, e := range c {
		ok, err := matchField(e, field, value, m)
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = e
		}
	}
	return out, nil
}

// ByName finds the first entity whose name contains the given string.
// This is the containment variant spelled out as a helper; use Find with
// MatchExact for strict name equality.
func (c Collection[E]) ByName(name string) (E, bool, error) {
	return c.Find("name", name, MatchContains)
}

// Where returns a new collection holding every entity the predicate
// accepts.
func (c Collection[E]) Where(pred func(E) bool) Collection[E] {
	out := make(Collection[E])
	for id, e := range c {
		if pred(e) {
			out[id] = e
		}
	}
	return out
}

func matchField(entity any, field string, value any, mode MatchMode) (bool, error) {
	fv, ok := fieldByName(reflect.ValueOf(entity), field)
	if !ok {
		return false, fmt.Errorf("%w: %T has no field %q", ErrValidation, entity, field)
	}

	// Nil pointers match only an explicit nil value.
	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return value == nil, nil
		}
		fv = fv.Elem()
	}
	if value == nil {
		return false, nil
	}

	switch mode {
	case MatchContains, MatchGlob:
		if fv.Kind() != reflect.String {
			return false, fmt.Errorf("%w: %s match requires a string field, %q is %s",
				ErrValidation, modeName(mode), field, fv.Kind())
		}
		want, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("%w: %s match requires a string value", ErrValidation, modeName(mode))
		}
		if mode == MatchGlob {
			return glob.Glob(want, fv.String()), nil
		}
		return strings.Contains(fv.String(), want), nil
	default:
		rv := reflect.ValueOf(value)
		if rv.Type() == fv.Type() {
			return reflect.DeepEqual(fv.Interface(), value), nil
		}
		// Scalar widening, e.g. an untyped int against a Milliunits field
		// or a plain string against a named string type.
		if scalarKind(rv.Kind()) && scalarKind(fv.Kind()) && rv.CanConvert(fv.Type()) {
			return reflect.DeepEqual(fv.Interface(), rv.Convert(fv.Type()).Interface()), nil
		}
		// Fall back to the printed forms so e.g. uuid fields can be
		// matched against their string representation.
		return fmt.Sprint(fv.Interface()) == fmt.Sprint(value), nil
	}
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func modeName(m MatchMode) string {
	switch m {
	case MatchContains:
		return "contains"
	case MatchGlob:
		return "glob"
	default:
		return "exact"
	}
}

// fieldByName resolves a struct field by Go name or json tag, recursing
// into embedded structs after direct fields.
func fieldByName(v reflect.Value, name string) (reflect.Value, bool) {
	v = reflect.Indirect(v)
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if f.Name == name {
			return v.Field(i), true
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == name {
			return v.Field(i), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.IsExported() {
			if fv, ok := fieldByName(v.Field(i), name); ok {
				return fv, true
			}
		}
	}
	return reflect.Value{}, false
}
