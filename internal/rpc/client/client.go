// Package client implements the Barrister RPC client: a transport-backed
// caller that fetches the contract via barrister-idl on construction,
// exposes per-interface proxies, and supports batched sends.
package client

import (
	"encoding/json"
	"fmt"

	"github.com/coopernurse/barrister/idl"
	"github.com/coopernurse/barrister/internal/model"
	"github.com/coopernurse/barrister/internal/rpc"
	"github.com/coopernurse/barrister/internal/rpc/client/idempotency"
)

// Submitter is the minimal transport surface the client needs: submit
// one decoded JSON-RPC value, get one back.
type Submitter interface {
	Submit(msg any) (any, error)
}

// Client calls RPC functions through a Submitter, validating params and
// results against a Contract Model fetched on construction.
type Client struct {
	transport        Submitter
	model            *model.Model
	idgen            IDGenerator
	validateRequest  bool
	validateResponse bool
	idem             *idempotency.Cache
}

// Option configures a Client at construction time.
type Option func(*Client)

func WithIDGenerator(g IDGenerator) Option { return func(c *Client) { c.idgen = g } }
func WithRequestValidation(enabled bool) Option {
	return func(c *Client) { c.validateRequest = enabled }
}
func WithResponseValidation(enabled bool) Option {
	return func(c *Client) { c.validateResponse = enabled }
}

// WithIdempotency attaches a dedup cache that Batch.Send consults before
// resubmitting: request ids it has already marked seen are not sent to the
// transport a second time.
func WithIdempotency(cache *idempotency.Cache) Option {
	return func(c *Client) { c.idem = cache }
}

// New fetches the contract from t via barrister-idl and builds a Client
// ready to serve interface proxies and batches.
func New(t Submitter, opts ...Option) (*Client, error) {
	c := &Client{
		transport:        t,
		idgen:            RandomIDGenerator{},
		validateRequest:  true,
		validateResponse: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	raw, err := t.Submit(map[string]any{
		"jsonrpc": "2.0",
		"id":      c.idgen.NextID(),
		"method":  rpc.MetaMethod,
	})
	if err != nil {
		return nil, rpc.Wrap(err)
	}
	resp, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	contract, err := toContract(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("decode barrister-idl response: %w", err)
	}
	c.model = model.New(contract)
	return c, nil
}

// Model returns the Contract Model built from the fetched contract.
func (c *Client) Model() *model.Model { return c.model }

// Call invokes "Interface.Function" with positional params, validating
// both sides of the call when enabled.
func (c *Client) Call(method string, params []any) (any, error) {
	ifaceName, fnName, ok := rpc.SplitMethod(method)
	if !ok {
		return nil, rpc.NewError(rpc.CodeMethodNotFound, fmt.Sprintf("method has no interface separator: %s", method))
	}
	fnSpec, ferr := c.lookupFunction(ifaceName, fnName)
	if ferr != nil {
		return nil, ferr
	}

	if c.validateRequest {
		if len(params) != len(fnSpec.Params) {
			return nil, rpc.NewError(rpc.CodeInvalidParams, fmt.Sprintf("%s: expected %d params, got %d", method, len(fnSpec.Params), len(params)))
		}
		for i, p := range fnSpec.Params {
			if ok, msg := c.model.ValidateValue(p.Type, p.IsArray, false, params[i], true); !ok {
				return nil, rpc.NewError(rpc.CodeInvalidParams, fmt.Sprintf("%s: param %s: %s", method, p.Name, msg))
			}
		}
	}

	id := c.idgen.NextID()
	req := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		req["params"] = params
	}

	raw, err := c.transport.Submit(req)
	if err != nil {
		return nil, rpc.Wrap(err)
	}
	resp, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	if c.validateResponse && fnSpec.Returns != nil {
		if ok, msg := c.model.ValidateValue(fnSpec.Returns.Type, fnSpec.Returns.IsArray, fnSpec.Returns.Optional, resp.Result, false); !ok {
			return nil, rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("%s: %s", method, msg))
		}
	}
	return resp.Result, nil
}

func (c *Client) lookupFunction(ifaceName, fnName string) (*idl.Function, error) {
	iface, ok := c.model.Interface(ifaceName)
	if !ok {
		return nil, rpc.NewError(rpc.CodeMethodNotFound, "unknown interface: "+ifaceName)
	}
	for i := range iface.Functions {
		if iface.Functions[i].Name == fnName {
			return &iface.Functions[i], nil
		}
	}
	return nil, rpc.NewError(rpc.CodeMethodNotFound, fmt.Sprintf("unknown function: %s.%s", ifaceName, fnName))
}

type decoded struct {
	ID     any
	Result any
	Error  *rpc.Error
}

// decodeResponse normalizes a transport's returned value, which may be a
// typed rpc.Response (the in-process transport) or a plain decoded-JSON
// map (the HTTP transport), into a single shape.
func decodeResponse(raw any) (decoded, error) {
	switch v := raw.(type) {
	case rpc.Response:
		return decoded{ID: v.ID, Result: v.Result, Error: v.Error}, nil
	case map[string]any:
		d := decoded{ID: v["id"]}
		if e, present := v["error"]; present && e != nil {
			em, _ := e.(map[string]any)
			code, _ := em["code"].(float64)
			msg, _ := em["message"].(string)
			d.Error = &rpc.Error{Code: int(code), Message: msg, Data: em["data"]}
			return d, nil
		}
		d.Result = v["result"]
		return d, nil
	default:
		return decoded{}, rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("unexpected response shape: %T", raw))
	}
}

// toContract normalizes a barrister-idl result into idl.Contract whether
// it arrived as a typed Go value (in-process transport) or as
// generic decoded JSON (HTTP transport).
func toContract(result any) (idl.Contract, error) {
	if c, ok := result.(idl.Contract); ok {
		return c, nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var c idl.Contract
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return c, nil
}
