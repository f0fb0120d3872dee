package message

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/abi"
)

// ExecutionOutput is the result of a local run. Output is nil when the call produced no answer.
type ExecutionOutput struct {
	Output []abi.Token
	Code   int32
}

// MarshalJSON writes {"output", "code"}; output is null when absent.
func (o *ExecutionOutput) MarshalJSON() ([]byte, error) {
	var output map[string]interface{}
	if o.Output != nil {
		output = abi.MakeJSONValue(o.Output)
	}
	return json.Marshal(struct {
		Output map[string]interface{} `json:"output"`
		Code   int32                  `json:"code"`
	}{output, o.Code})
}

// Executor runs a call body against an account state snapshot.
type Executor interface {
	Execute(ctx context.Context, account *cell.Cell, fn *abi.Function, body *cell.Cell, responsible bool) (*ExecutionOutput, error)
}

// RunLocal encodes inputs as an internal call of fn and runs it against account. Responsible calls
// take the answer id as their first input.
func RunLocal(ctx context.Context, executor Executor, account *cell.Cell, fn *abi.Function, inputs []abi.Token, responsible bool) (*ExecutionOutput, error) {
	body, err := fn.EncodeInternalInput(inputs)
	if err != nil {
		return nil, err
	}
	out, err := executor.Execute(ctx, account, fn, body, responsible)
	if err != nil {
		return nil, fmt.Errorf("cannot run %q locally: %w", fn.Name, err)
	}
	return out, nil
}
