// Package transaction decodes contract calls and events out of transaction records.
package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/abi"
	"github.com/everscale-go/tvm-abi/boc"
)

// Message is a transaction message. Empty fields are absent; the body is a base64 bag of cells.
type Message struct {
	Src  string `json:"src,omitempty"`
	Dst  string `json:"dst,omitempty"`
	Body string `json:"body,omitempty"`
}

// BodyCell parses the body. It returns nil when the message has no body.
func (m Message) BodyCell() (*cell.Cell, error) {
	if m.Body == "" {
		return nil, nil
	}
	return boc.Decode(m.Body)
}

// Transaction is the part of a transaction record the decoder looks at.
type Transaction struct {
	InMsg   Message   `json:"inMsg"`
	OutMsgs []Message `json:"outMsgs"`
}

// Parse reads a transaction record from JSON.
func Parse(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("cannot parse transaction: %w", err)
	}
	return &tx, nil
}

// MalformedTransactionError is returned when an outbound message without destination has no body.
type MalformedTransactionError struct {
	// Index is the position of the message in OutMsgs.
	Index int
}

func (e *MalformedTransactionError) Error() string {
	return fmt.Sprintf("malformed transaction: outbound message %d has no destination and no body", e.Index)
}

// externalOutBodies returns the bodies of outbound messages without destination, in order.
func externalOutBodies(tx *Transaction) ([]*cell.Cell, error) {
	bodies := make([]*cell.Cell, 0, len(tx.OutMsgs))
	for i, msg := range tx.OutMsgs {
		if msg.Dst != "" {
			continue
		}
		body, err := msg.BodyCell()
		if err != nil {
			return nil, fmt.Errorf("cannot parse body of outbound message %d: %w", i, err)
		}
		if body == nil {
			return nil, &MalformedTransactionError{Index: i}
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

// DecodedTransaction is a decoded contract call.
type DecodedTransaction struct {
	Method string
	Input  []abi.Token
	Output []abi.Token
}

// MarshalJSON writes {"method", "input", "output"}.
func (d *DecodedTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method string                 `json:"method"`
		Input  map[string]interface{} `json:"input"`
		Output map[string]interface{} `json:"output"`
	}{d.Method, abi.MakeJSONValue(d.Input), abi.MakeJSONValue(d.Output)})
}

// DecodeTransaction decodes the call made by tx. The call is internal when the inbound message has a
// source. It returns nil when the inbound message has no body or matches no function of method.
func DecodeTransaction(contract *abi.Contract, tx *Transaction, method abi.MethodName) (*DecodedTransaction, error) {
	internal := tx.InMsg.Src != ""
	body, err := tx.InMsg.BodyCell()
	if err != nil {
		return nil, fmt.Errorf("cannot parse inbound message body: %w", err)
	}
	if body == nil {
		return nil, nil
	}

	fn, ok := contract.MatchFunction(body, method, internal)
	if !ok {
		return nil, nil
	}
	input, err := fn.DecodeInput(body, internal)
	if err != nil {
		return nil, err
	}

	bodies, err := externalOutBodies(tx)
	if err != nil {
		return nil, err
	}
	output, err := fn.ProcessRawOutputs(bodies)
	if err != nil {
		return nil, err
	}
	return &DecodedTransaction{Method: fn.Name, Input: input, Output: output}, nil
}

// DecodeTransactionEvents decodes the events emitted by tx. Outbound messages that carry no declared
// event, or whose data does not decode, are left out.
func DecodeTransactionEvents(contract *abi.Contract, tx *Transaction) ([]*abi.DecodedEvent, error) {
	bodies, err := externalOutBodies(tx)
	if err != nil {
		return nil, err
	}
	return contract.ScanEvents(bodies), nil
}
