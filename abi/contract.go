package abi

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Version is a contract ABI version.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Function is a contract method.
type Function struct {
	Name string
	// Header lists the external message header params, shared by every function of a contract.
	Header  []Param
	Inputs  []Param
	Outputs []Param
	// InputID prefixes call bodies, OutputID prefixes answers.
	InputID  uint32
	OutputID uint32

	version Version
}

// Event is a contract event, emitted in the body of an external outbound message.
type Event struct {
	Name   string
	Inputs []Param
	ID     uint32

	version Version
}

// DataItem is a persistent data param with its key in the initial data dictionary.
type DataItem struct {
	Key   uint64
	Param Param
}

// Contract is a loaded contract ABI. It is immutable and may be shared by any number of goroutines.
type Contract struct {
	Version Version
	Header  []Param

	functions       []*Function
	functionsByName map[string]*Function
	events          []*Event
	eventsByName    map[string]*Event
	data            []DataItem
	fields          []Param
}

// Signature returns the signature the function id is derived from, e.g. "transfer(address,uint128)()v2".
func (f *Function) Signature() string {
	return fmt.Sprintf("%s(%s)(%s)v%d", f.Name, paramTypes(f.Inputs), paramTypes(f.Outputs), f.version.Major)
}

// Signature returns the signature the event id is derived from.
func (e *Event) Signature() string {
	return fmt.Sprintf("%s(%s)v%d", e.Name, paramTypes(e.Inputs), e.version.Major)
}

// signatureID returns the first four bytes of the SHA-256 of signature.
func signatureID(signature string) uint32 {
	sum := sha256.Sum256([]byte(signature))
	return binary.BigEndian.Uint32(sum[:4])
}

// Function returns the function with the given name.
func (c *Contract) Function(name string) (*Function, bool) {
	f, ok := c.functionsByName[name]
	return f, ok
}

// Functions returns the functions in declaration order.
func (c *Contract) Functions() []*Function {
	return append([]*Function(nil), c.functions...)
}

// Event returns the event with the given name.
func (c *Contract) Event(name string) (*Event, bool) {
	e, ok := c.eventsByName[name]
	return e, ok
}

// Events returns the events in declaration order.
func (c *Contract) Events() []*Event {
	return append([]*Event(nil), c.events...)
}

// EventByID returns the event with the given id.
func (c *Contract) EventByID(id uint32) (*Event, bool) {
	for _, e := range c.events {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Data returns the persistent data params.
func (c *Contract) Data() []DataItem {
	return append([]DataItem(nil), c.data...)
}

// DataParams returns the params of the persistent data items, in declaration order.
func (c *Contract) DataParams() []Param {
	params := make([]Param, len(c.data))
	for i, item := range c.data {
		params[i] = item.Param
	}
	return params
}

// Fields returns the storage layout params.
func (c *Contract) Fields() []Param {
	return append([]Param(nil), c.fields...)
}

type headerJSON struct {
	Param
}

func (h *headerJSON) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		var k Kind
		switch name {
		case "time":
			k = Time
		case "expire":
			k = Expire
		case "pubkey":
			k = PublicKey
		default:
			return fmt.Errorf("unknown header param %q", name)
		}
		h.Param = Param{Name: name, Type: makeSimpleType(k)}
		return nil
	}
	return json.Unmarshal(data, &h.Param)
}

type functionJSON struct {
	Name    string          `json:"name"`
	ID      json.RawMessage `json:"id,omitempty"`
	Inputs  []Param         `json:"inputs"`
	Outputs []Param         `json:"outputs"`
}

type eventJSON struct {
	Name   string          `json:"name"`
	ID     json.RawMessage `json:"id,omitempty"`
	Inputs []Param         `json:"inputs"`
}

type dataJSON struct {
	Key uint64 `json:"key"`
	paramJSON
}

type contractJSON struct {
	ABIVersion *int           `json:"ABI version"`
	Version    string         `json:"version"`
	Header     []headerJSON   `json:"header"`
	Functions  []functionJSON `json:"functions"`
	Events     []eventJSON    `json:"events"`
	Data       []dataJSON     `json:"data"`
	Fields     []Param        `json:"fields"`
}

// parseID reads an explicit id given either as a number or as a string such as "0x0000000a".
func parseID(raw json.RawMessage) (uint32, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n uint32
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, false, fmt.Errorf("id must be a string or a number: %s", raw)
		}
		return n, true, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, false, fmt.Errorf("bad id %q: %w", s, err)
	}
	return uint32(n), true, nil
}

func parseVersion(raw contractJSON) (Version, error) {
	if raw.Version != "" {
		major, minor, _ := strings.Cut(raw.Version, ".")
		var v Version
		var err error
		if v.Major, err = strconv.Atoi(major); err != nil {
			return Version{}, fmt.Errorf("bad ABI version %q", raw.Version)
		}
		if minor != "" {
			if v.Minor, err = strconv.Atoi(minor); err != nil {
				return Version{}, fmt.Errorf("bad ABI version %q", raw.Version)
			}
		}
		return v, nil
	}
	if raw.ABIVersion == nil {
		return Version{}, fmt.Errorf("ABI version is missing")
	}
	return Version{Major: *raw.ABIVersion}, nil
}

// LoadContract parses a contract ABI document. Only ABI version 2 is supported.
func LoadContract(data []byte) (*Contract, error) {
	var raw contractJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse contract ABI: %w", err)
	}
	version, err := parseVersion(raw)
	if err != nil {
		return nil, err
	}
	if version.Major != 2 {
		return nil, fmt.Errorf("unsupported ABI version %s", version)
	}

	c := &Contract{
		Version:         version,
		Header:          make([]Param, len(raw.Header)),
		functionsByName: make(map[string]*Function, len(raw.Functions)),
		eventsByName:    make(map[string]*Event, len(raw.Events)),
		fields:          raw.Fields,
	}
	for i, h := range raw.Header {
		c.Header[i] = h.Param
	}

	for _, fn := range raw.Functions {
		if _, dup := c.functionsByName[fn.Name]; dup {
			return nil, fmt.Errorf("duplicate function %q", fn.Name)
		}
		f := &Function{
			Name:    fn.Name,
			Header:  c.Header,
			Inputs:  fn.Inputs,
			Outputs: fn.Outputs,
			version: version,
		}
		id, explicit, err := parseID(fn.ID)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.Name, err)
		}
		if !explicit {
			id = signatureID(f.Signature()) & 0x7fffffff
		}
		f.InputID = id
		f.OutputID = id | 0x80000000
		c.functions = append(c.functions, f)
		c.functionsByName[f.Name] = f
	}

	for _, ev := range raw.Events {
		if _, dup := c.eventsByName[ev.Name]; dup {
			return nil, fmt.Errorf("duplicate event %q", ev.Name)
		}
		e := &Event{Name: ev.Name, Inputs: ev.Inputs, version: version}
		id, explicit, err := parseID(ev.ID)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.Name, err)
		}
		if !explicit {
			id = signatureID(e.Signature()) & 0x7fffffff
		}
		e.ID = id
		c.events = append(c.events, e)
		c.eventsByName[e.Name] = e
	}

	seenKeys := make(map[uint64]struct{}, len(raw.Data))
	for _, item := range raw.Data {
		if _, dup := seenKeys[item.Key]; dup {
			return nil, fmt.Errorf("duplicate data key %d", item.Key)
		}
		seenKeys[item.Key] = struct{}{}
		p, err := item.param()
		if err != nil {
			return nil, fmt.Errorf("data item %q: %w", item.Name, err)
		}
		c.data = append(c.data, DataItem{Key: item.Key, Param: p})
	}
	return c, nil
}
