package abi

import (
	"encoding/json"
	"fmt"
)

// Param is a named ABI parameter.
type Param struct {
	Name string
	Type Type
}

type paramJSON struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Components []paramJSON `json:"components,omitempty"`
}

func (p paramJSON) param() (Param, error) {
	t, err := TypeOf(p.Type)
	if err != nil {
		return Param{}, err
	}
	components := make([]Param, 0, len(p.Components))
	for _, c := range p.Components {
		component, err := c.param()
		if err != nil {
			return Param{}, err
		}
		components = append(components, component)
	}
	t, err = SetComponents(t, components)
	if err != nil {
		return Param{}, err
	}
	return Param{Name: p.Name, Type: t}, nil
}

// descriptor returns the declaration form of t: tuples are spelled "tuple" and their components are
// listed separately.
func descriptor(t Type) (string, []paramJSON) {
	switch t.kind {
	case Tuple:
		components := make([]paramJSON, len(t.fields))
		for i, f := range t.fields {
			components[i] = f.toJSON()
		}
		return "tuple", components
	case Array:
		elem, components := descriptor(t.childTypes[0])
		return elem + "[]", components
	case FixedArray:
		elem, components := descriptor(t.childTypes[0])
		return fmt.Sprintf("%s[%d]", elem, t.length), components
	case Map:
		value, components := descriptor(t.childTypes[1])
		return fmt.Sprintf("map(%s,%s)", t.childTypes[0], value), components
	case Optional:
		inner, components := descriptor(t.childTypes[0])
		return "optional(" + inner + ")", components
	case Ref:
		inner, components := descriptor(t.childTypes[0])
		return "ref(" + inner + ")", components
	default:
		return t.String(), nil
	}
}

func (p Param) toJSON() paramJSON {
	typ, components := descriptor(p.Type)
	return paramJSON{Name: p.Name, Type: typ, Components: components}
}

// UnmarshalJSON reads a parameter declaration {"name", "type", "components"}.
func (p *Param) UnmarshalJSON(data []byte) error {
	var raw paramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := raw.param()
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalJSON writes p in the declaration form accepted by UnmarshalJSON.
func (p Param) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toJSON())
}

// ParseParams reads a JSON list of parameter declarations.
func ParseParams(data []byte) ([]Param, error) {
	var params []Param
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("cannot parse params list: %w", err)
	}
	return params, nil
}

func paramTypes(params []Param) string {
	res := ""
	for i, p := range params {
		if i > 0 {
			res += ","
		}
		res += p.Type.String()
	}
	return res
}
