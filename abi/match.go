package abi

import (
	"encoding/json"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

type methodMode int

const (
	anyMethod methodMode = iota
	knownMethod
	guessInRange
)

// MethodName selects the functions or events a payload is matched against.
type MethodName struct {
	mode  methodMode
	names []string
}

// KnownMethod selects a single declared name without looking at the payload id. A payload with
// another id fails to decode.
func KnownMethod(name string) MethodName {
	return MethodName{mode: knownMethod, names: []string{name}}
}

// GuessInRange matches the first of names, in order, whose id prefixes the payload. Names that are
// not declared are skipped.
func GuessInRange(names ...string) MethodName {
	return MethodName{mode: guessInRange, names: append([]string(nil), names...)}
}

// AnyMethod matches any declared name, in declaration order.
func AnyMethod() MethodName {
	return MethodName{mode: anyMethod}
}

// Names returns the names m refers to; it is empty for AnyMethod.
func (m MethodName) Names() []string {
	return append([]string(nil), m.names...)
}

func (m MethodName) String() string {
	switch m.mode {
	case knownMethod:
		return m.names[0]
	case guessInRange:
		return fmt.Sprintf("%v", m.names)
	default:
		return "*"
	}
}

// UnmarshalJSON accepts a name, a list of names or null for any.
func (m *MethodName) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = AnyMethod()
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = KnownMethod(name)
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*m = GuessInRange(names...)
		return nil
	}
	return fmt.Errorf("expected string or array")
}

// MarshalJSON writes m in the form accepted by UnmarshalJSON.
func (m MethodName) MarshalJSON() ([]byte, error) {
	switch m.mode {
	case knownMethod:
		return json.Marshal(m.names[0])
	case guessInRange:
		return json.Marshal(m.names)
	default:
		return []byte("null"), nil
	}
}

// ReadInputFunctionID reads the input id of a call body. External bodies carry the signature slot and
// the contract header in front of it.
func (c *Contract) ReadInputFunctionID(body *cell.Cell, internal bool) (uint32, error) {
	if internal {
		return ReadFunctionID(body)
	}
	r := newChainReader(body, signatureSlotBits)
	if _, err := readSignature(r); err != nil {
		return 0, err
	}
	if _, err := readParams(r, "", c.Header); err != nil {
		return 0, err
	}
	return readID(r)
}

func (c *Contract) known(method MethodName) (*Function, bool) {
	f, ok := c.functionsByName[method.names[0]]
	return f, ok
}

func (c *Contract) candidates(method MethodName) []*Function {
	switch method.mode {
	case guessInRange:
		res := make([]*Function, 0, len(method.names))
		for _, name := range method.names {
			if f, ok := c.functionsByName[name]; ok {
				res = append(res, f)
			}
		}
		return res
	default:
		return c.functions
	}
}

// MatchFunction finds the function whose input id prefixes body. It reports false when no candidate
// matches. A known method is returned by name alone.
func (c *Contract) MatchFunction(body *cell.Cell, method MethodName, internal bool) (*Function, bool) {
	if method.mode == knownMethod {
		return c.known(method)
	}
	id, err := c.ReadInputFunctionID(body, internal)
	if err != nil {
		return nil, false
	}
	for _, f := range c.candidates(method) {
		if f.InputID == id {
			return f, true
		}
	}
	return nil, false
}

// MatchOutput finds the function whose output id prefixes body.
func (c *Contract) MatchOutput(body *cell.Cell, method MethodName) (*Function, bool) {
	if method.mode == knownMethod {
		return c.known(method)
	}
	id, err := ReadFunctionID(body)
	if err != nil {
		return nil, false
	}
	for _, f := range c.candidates(method) {
		if f.OutputID == id {
			return f, true
		}
	}
	return nil, false
}

// MatchEvent finds the event whose id prefixes body.
func (c *Contract) MatchEvent(body *cell.Cell, method MethodName) (*Event, bool) {
	if method.mode == knownMethod {
		e, ok := c.eventsByName[method.names[0]]
		return e, ok
	}
	id, err := ReadFunctionID(body)
	if err != nil {
		return nil, false
	}
	switch method.mode {
	case guessInRange:
		for _, name := range method.names {
			if e, ok := c.eventsByName[name]; ok && e.ID == id {
				return e, true
			}
		}
		return nil, false
	default:
		return c.EventByID(id)
	}
}

// DecodedInput is a decoded call body.
type DecodedInput struct {
	Method string
	Input  []Token
}

// MarshalJSON writes {"method", "input"}.
func (d *DecodedInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method string                 `json:"method"`
		Input  map[string]interface{} `json:"input"`
	}{d.Method, MakeJSONValue(d.Input)})
}

// DecodedOutput is a decoded answer body.
type DecodedOutput struct {
	Method string
	Output []Token
}

// MarshalJSON writes {"method", "output"}.
func (d *DecodedOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method string                 `json:"method"`
		Output map[string]interface{} `json:"output"`
	}{d.Method, MakeJSONValue(d.Output)})
}

// DecodedEvent is a decoded event body.
type DecodedEvent struct {
	Event string
	Data  []Token
}

// MarshalJSON writes {"event", "data"}.
func (d *DecodedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}{d.Event, MakeJSONValue(d.Data)})
}

// DecodeInput matches body against method and decodes its inputs. It returns nil when nothing matches.
func (c *Contract) DecodeInput(body *cell.Cell, method MethodName, internal bool) (*DecodedInput, error) {
	f, ok := c.MatchFunction(body, method, internal)
	if !ok {
		return nil, nil
	}
	input, err := f.DecodeInput(body, internal)
	if err != nil {
		return nil, err
	}
	return &DecodedInput{Method: f.Name, Input: input}, nil
}

// DecodeOutput matches body against method and decodes its outputs. It returns nil when nothing
// matches.
func (c *Contract) DecodeOutput(body *cell.Cell, method MethodName) (*DecodedOutput, error) {
	f, ok := c.MatchOutput(body, method)
	if !ok {
		return nil, nil
	}
	output, err := f.DecodeOutput(body)
	if err != nil {
		return nil, err
	}
	return &DecodedOutput{Method: f.Name, Output: output}, nil
}

// DecodeEvent matches body against method and decodes the event data. It returns nil when nothing
// matches.
func (c *Contract) DecodeEvent(body *cell.Cell, method MethodName) (*DecodedEvent, error) {
	e, ok := c.MatchEvent(body, method)
	if !ok {
		return nil, nil
	}
	data, err := e.DecodeInput(body)
	if err != nil {
		return nil, err
	}
	return &DecodedEvent{Event: e.Name, Data: data}, nil
}

// ScanEvents decodes every body that carries a declared event. Bodies that match no event, or whose
// data does not decode, are skipped.
func (c *Contract) ScanEvents(bodies []*cell.Cell) []*DecodedEvent {
	res := make([]*DecodedEvent, 0, len(bodies))
	for _, body := range bodies {
		event, err := c.DecodeEvent(body, AnyMethod())
		if err != nil || event == nil {
			continue
		}
		res = append(res, event)
	}
	return res
}
