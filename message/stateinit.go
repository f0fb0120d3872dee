package message

import (
	"crypto/ed25519"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/abi"
	"github.com/everscale-go/tvm-abi/address"
	"github.com/everscale-go/tvm-abi/boc"
)

// TickTock holds the special flags of a state init.
type TickTock struct {
	Tick bool
	Tock bool
}

// StateInit is the code and initial data a contract is deployed with.
type StateInit struct {
	SplitDepth *uint8
	Special    *TickTock
	Code       *cell.Cell
	Data       *cell.Cell
	// Library is the root of the library dictionary, nil when empty.
	Library *cell.Cell
}

const (
	splitDepthBits = 5
	dataKeyBits    = 64
	// the public key is stored under key 0 of the initial data dictionary.
	publicKeyDataKey = 0
)

// ParseStateInit reads a state init from a base64 bag of cells, such as a compiled contract image.
func ParseStateInit(b64 string) (*StateInit, error) {
	root, err := boc.Decode(b64)
	if err != nil {
		return nil, err
	}
	return LoadStateInit(root)
}

func loadMaybeRef(s *cell.Slice) (*cell.Cell, error) {
	present, err := s.LoadBoolBit()
	if err != nil || !present {
		return nil, err
	}
	return s.LoadRefCell()
}

// LoadStateInit reads a state init from its cell.
func LoadStateInit(c *cell.Cell) (*StateInit, error) {
	s := c.BeginParse()
	si := &StateInit{}

	hasDepth, err := s.LoadBoolBit()
	if err != nil {
		return nil, fmt.Errorf("cannot load state init: %w", err)
	}
	if hasDepth {
		depth, err := s.LoadUInt(splitDepthBits)
		if err != nil {
			return nil, fmt.Errorf("cannot load state init split depth: %w", err)
		}
		d := uint8(depth)
		si.SplitDepth = &d
	}

	hasSpecial, err := s.LoadBoolBit()
	if err != nil {
		return nil, fmt.Errorf("cannot load state init: %w", err)
	}
	if hasSpecial {
		tick, err := s.LoadBoolBit()
		if err != nil {
			return nil, fmt.Errorf("cannot load state init special: %w", err)
		}
		tock, err := s.LoadBoolBit()
		if err != nil {
			return nil, fmt.Errorf("cannot load state init special: %w", err)
		}
		si.Special = &TickTock{Tick: tick, Tock: tock}
	}

	if si.Code, err = loadMaybeRef(s); err != nil {
		return nil, fmt.Errorf("cannot load state init code: %w", err)
	}
	if si.Data, err = loadMaybeRef(s); err != nil {
		return nil, fmt.Errorf("cannot load state init data: %w", err)
	}
	if si.Library, err = loadMaybeRef(s); err != nil {
		return nil, fmt.Errorf("cannot load state init library: %w", err)
	}
	if s.BitsLeft() != 0 || s.RefsNum() != 0 {
		return nil, fmt.Errorf("cannot load state init: unexpected trailing data")
	}
	return si, nil
}

func storeMaybeRef(b *cell.Builder, c *cell.Cell) error {
	if c == nil {
		return b.StoreBoolBit(false)
	}
	if err := b.StoreBoolBit(true); err != nil {
		return err
	}
	return b.StoreRef(c)
}

// Cell serializes the state init.
func (si *StateInit) Cell() (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := b.StoreBoolBit(si.SplitDepth != nil); err != nil {
		return nil, err
	}
	if si.SplitDepth != nil {
		if err := b.StoreUInt(uint64(*si.SplitDepth), splitDepthBits); err != nil {
			return nil, err
		}
	}
	if err := b.StoreBoolBit(si.Special != nil); err != nil {
		return nil, err
	}
	if si.Special != nil {
		if err := b.StoreBoolBit(si.Special.Tick); err != nil {
			return nil, err
		}
		if err := b.StoreBoolBit(si.Special.Tock); err != nil {
			return nil, err
		}
	}
	for _, ref := range []*cell.Cell{si.Code, si.Data, si.Library} {
		if err := storeMaybeRef(b, ref); err != nil {
			return nil, err
		}
	}
	return b.EndCell(), nil
}

// dataDict reads the initial data dictionary (64-bit keys) of the state init.
func (si *StateInit) dataDict() (*cell.Dictionary, error) {
	dict := cell.NewDict(dataKeyBits)
	if si.Data == nil {
		return dict, nil
	}
	root, err := loadMaybeRef(si.Data.BeginParse())
	if err != nil {
		return nil, fmt.Errorf("cannot load initial data: %w", err)
	}
	if root == nil {
		return dict, nil
	}
	kvs, err := root.AsDict(dataKeyBits).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot load initial data: %w", err)
	}
	for _, kv := range kvs {
		key, err := boc.FromSlice(kv.Key)
		if err != nil {
			return nil, err
		}
		value, err := boc.FromSlice(kv.Value)
		if err != nil {
			return nil, err
		}
		if err := dict.Set(key, value); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

func dataKey(key uint64) *cell.Cell {
	return cell.BeginCell().MustStoreUInt(key, dataKeyBits).EndCell()
}

// WithInitialData returns a copy of si whose data dictionary carries publicKey under key 0, when
// given, and each token under the key of its data item.
func (si *StateInit) WithInitialData(contract *abi.Contract, publicKey ed25519.PublicKey, tokens []abi.Token) (*StateInit, error) {
	dict, err := si.dataDict()
	if err != nil {
		return nil, err
	}
	if publicKey != nil {
		value := cell.BeginCell()
		if err := value.StoreSlice(publicKey, uint(len(publicKey)*8)); err != nil {
			return nil, err
		}
		if err := dict.Set(dataKey(publicKeyDataKey), value.EndCell()); err != nil {
			return nil, err
		}
	}

	keys := make(map[string]uint64)
	for _, item := range contract.Data() {
		keys[item.Param.Name] = item.Key
	}
	for _, token := range tokens {
		key, ok := keys[token.Name]
		if !ok {
			return nil, fmt.Errorf("%q is not a data item of the contract", token.Name)
		}
		value, err := abi.Pack([]abi.Token{token})
		if err != nil {
			return nil, err
		}
		if err := dict.Set(dataKey(key), value); err != nil {
			return nil, fmt.Errorf("cannot store data item %q: %w", token.Name, err)
		}
	}

	data := cell.BeginCell()
	if dict.IsEmpty() {
		if err := data.StoreBoolBit(false); err != nil {
			return nil, err
		}
	} else if err := storeMaybeRef(data, dict.AsCell()); err != nil {
		return nil, err
	}

	res := *si
	res.Data = data.EndCell()
	return &res, nil
}

// ExpectedAddress computes the address a contract deployed with si, publicKey and initial data
// tokens gets in workchain.
func ExpectedAddress(si *StateInit, contract *abi.Contract, workchain int8, publicKey ed25519.PublicKey, initData []abi.Token) (address.Address, error) {
	withData, err := si.WithInitialData(contract, publicKey, initData)
	if err != nil {
		return address.Address{}, err
	}
	c, err := withData.Cell()
	if err != nil {
		return address.Address{}, err
	}
	res := address.Address{Workchain: workchain}
	copy(res.Hash[:], c.Hash())
	return res, nil
}
