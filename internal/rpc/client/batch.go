package client

import (
	"context"
	"fmt"

	"github.com/coopernurse/barrister/idl"
	"github.com/coopernurse/barrister/internal/rpc"
)

type batchEntry struct {
	id     string
	method string
	fnSpec *idl.Function
}

// Batch collects requests without sending them. Send submits the
// accumulated array through the transport; after Send, further Add
// calls are rejected.
type Batch struct {
	client   *Client
	entries  []batchEntry
	requests []map[string]any
	sent     bool
}

// NewBatch creates an empty Batch bound to this client's transport and
// validation settings.
func (c *Client) NewBatch() *Batch {
	return &Batch{client: c}
}

// Add queues one call in the batch and returns its position, which
// indexes the eventual BatchResult.
func (b *Batch) Add(method string, params []any) (int, error) {
	if b.sent {
		return -1, fmt.Errorf("batch already sent")
	}
	ifaceName, fnName, ok := rpc.SplitMethod(method)
	if !ok {
		return -1, rpc.NewError(rpc.CodeMethodNotFound, fmt.Sprintf("method has no interface separator: %s", method))
	}
	fnSpec, err := b.client.lookupFunction(ifaceName, fnName)
	if err != nil {
		return -1, err
	}

	if b.client.validateRequest {
		if len(params) != len(fnSpec.Params) {
			return -1, rpc.NewError(rpc.CodeInvalidParams, fmt.Sprintf("%s: expected %d params, got %d", method, len(fnSpec.Params), len(params)))
		}
		for i, p := range fnSpec.Params {
			if ok, msg := b.client.model.ValidateValue(p.Type, p.IsArray, false, params[i], true); !ok {
				return -1, rpc.NewError(rpc.CodeInvalidParams, fmt.Sprintf("%s: param %s: %s", method, p.Name, msg))
			}
		}
	}

	id := b.client.idgen.NextID()
	req := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		req["params"] = params
	}

	b.entries = append(b.entries, batchEntry{id: id, method: method, fnSpec: fnSpec})
	b.requests = append(b.requests, req)
	return len(b.requests) - 1, nil
}

// errDuplicateSuppressed is the result a BatchResult entry carries when an
// attached idempotency cache had already marked its request id as
// submitted: Send skips resending it rather than risk the handler running
// its side effects a second time.
func errDuplicateSuppressed(id string) *rpc.Error {
	return rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("request id %s already submitted; suppressed duplicate resend", id))
}

// Send submits the accumulated requests as a single JSON-RPC batch. It
// fails fast, before returning a BatchResult, if the response array
// length doesn't match the request count or any request id has no
// matching response -- both surfaced as -32001, matching the reference
// runtime's BatchResult constructor.
//
// When the client was built with WithIdempotency, Send first asks the
// cache which request ids are new; any id it has already seen (e.g. a
// retried Send after a transport error on a prior attempt) is not
// resubmitted, and its BatchResult entry carries errDuplicateSuppressed
// instead of a transport round trip.
func (b *Batch) Send() (*BatchResult, error) {
	if b.sent {
		return nil, fmt.Errorf("batch already sent")
	}
	b.sent = true
	if len(b.requests) == 0 {
		return nil, fmt.Errorf("batch is empty")
	}

	suppressed := make(map[string]bool)
	if b.client.idem != nil {
		ids := make([]string, len(b.entries))
		for i, e := range b.entries {
			ids[i] = e.id
		}
		unseen, err := b.client.idem.FilterUnseen(context.Background(), ids)
		if err != nil {
			return nil, fmt.Errorf("idempotency check: %w", err)
		}
		unseenSet := make(map[string]bool, len(unseen))
		for _, id := range unseen {
			unseenSet[id] = true
		}
		for _, id := range ids {
			if !unseenSet[id] {
				suppressed[id] = true
			}
		}
	}

	var toSend []any
	for i, e := range b.entries {
		if suppressed[e.id] {
			continue
		}
		toSend = append(toSend, b.requests[i])
	}

	byID := make(map[string]decoded, len(toSend))
	if len(toSend) > 0 {
		raw, err := b.client.transport.Submit(toSend)
		if err != nil {
			return nil, rpc.Wrap(err)
		}
		rawArr, ok := toArray(raw)
		if !ok {
			return nil, rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("batch response is not an array: %T", raw))
		}
		if len(rawArr) != len(toSend) {
			return nil, rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("batch response length %d != request length %d", len(rawArr), len(toSend)))
		}
		for _, item := range rawArr {
			d, err := decodeResponse(item)
			if err != nil {
				return nil, err
			}
			byID[fmt.Sprintf("%v", d.ID)] = d
		}
	}

	ordered := make([]decoded, len(b.entries))
	for i, e := range b.entries {
		if suppressed[e.id] {
			ordered[i] = decoded{ID: e.id, Error: errDuplicateSuppressed(e.id)}
			continue
		}
		d, ok := byID[e.id]
		if !ok {
			return nil, rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("batch response missing result for request id: %s", e.id))
		}
		ordered[i] = d
	}

	return &BatchResult{client: b.client, entries: b.entries, responses: ordered}, nil
}

func toArray(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []rpc.Response:
		out := make([]any, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out, true
	default:
		return nil, false
	}
}

// BatchResult indexes the responses to a sent Batch by request order.
type BatchResult struct {
	client    *Client
	entries   []batchEntry
	responses []decoded
}

// Len returns the number of responses, equal to the number of requests
// added to the batch.
func (r *BatchResult) Len() int { return len(r.responses) }

// At returns the result (or typed RPC error) for the call at position i,
// applying per-function response validation the same way a direct Call
// would.
func (r *BatchResult) At(i int) (any, error) {
	if i < 0 || i >= len(r.responses) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, len(r.responses))
	}
	d := r.responses[i]
	if d.Error != nil {
		return nil, d.Error
	}
	e := r.entries[i]
	if r.client.validateResponse && e.fnSpec.Returns != nil {
		if ok, msg := r.client.model.ValidateValue(e.fnSpec.Returns.Type, e.fnSpec.Returns.IsArray, e.fnSpec.Returns.Optional, d.Result, false); !ok {
			return nil, rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("%s: %s", e.method, msg))
		}
	}
	return d.Result, nil
}
