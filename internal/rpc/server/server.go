// Package server implements the JSON-RPC 2.0 dispatcher described in the
// Barrister runtime specification: one parsed message in, one parsed
// response out, with the barrister-idl meta-method, request/response
// validation toggles, and the -32000/-32001/-32601/-32602 error mapping.
package server

import (
	"encoding/json"
	"fmt"

	"github.com/coopernurse/barrister/idl"
	"github.com/coopernurse/barrister/internal/model"
	"github.com/coopernurse/barrister/internal/rpc"
	"github.com/coopernurse/barrister/internal/rpclog"
)

// HandlerFunc implements a single interface function. params are
// positional, already arity-checked if request validation is enabled.
type HandlerFunc func(params []any) (any, error)

// InterfaceHandler maps function name to implementation for one
// interface.
type InterfaceHandler map[string]HandlerFunc

// Server dispatches JSON-RPC calls against a contract and a registry of
// interface handlers. It holds no state beyond what is set up before the
// first call; concurrent calls are safe provided handlers are safe.
type Server struct {
	model            *model.Model
	handlers         map[string]InterfaceHandler
	validateRequest  bool
	validateResponse bool
	log              *rpclog.Logger
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithRequestValidation toggles validating inbound params against the
// contract before invoking a handler. Default: enabled.
func WithRequestValidation(enabled bool) Option {
	return func(s *Server) { s.validateRequest = enabled }
}

// WithResponseValidation toggles validating a handler's return value
// against the contract before sending the response. Default: enabled.
func WithResponseValidation(enabled bool) Option {
	return func(s *Server) { s.validateResponse = enabled }
}

// WithLogger overrides the server's logger. Default: rpclog.Default().
func WithLogger(l *rpclog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds a Server over the given contract model with no handlers
// registered. Register interfaces with Register before serving traffic.
func New(m *model.Model, opts ...Option) *Server {
	s := &Server{
		model:            m,
		handlers:         map[string]InterfaceHandler{},
		validateRequest:  true,
		validateResponse: true,
		log:              rpclog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register associates an InterfaceHandler with an interface name in the
// contract. Registering against an interface the contract does not
// declare is harmless; dispatch will simply never find functions for it.
func (s *Server) Register(interfaceName string, handler InterfaceHandler) {
	s.handlers[interfaceName] = handler
}

// HandleBytes is the convenience entry point: it accepts raw request
// bytes and returns raw response bytes, reporting malformed JSON as a
// -32700 error response.
func (s *Server) HandleBytes(data []byte) []byte {
	var msg any
	if err := json.Unmarshal(data, &msg); err != nil {
		resp := rpc.Response{JSONRPC: "2.0", Error: rpc.NewError(rpc.CodeParseError, err.Error())}
		b, _ := json.Marshal(resp)
		return b
	}
	b, err := json.Marshal(s.HandleMessage(msg))
	if err != nil {
		resp := rpc.Response{JSONRPC: "2.0", Error: rpc.NewError(rpc.CodeInternalError, err.Error())}
		b, _ = json.Marshal(resp)
	}
	return b
}

// HandleMessage accepts one parsed JSON-RPC message -- a request object
// or a batch array -- and returns the matching response shape.
func (s *Server) HandleMessage(msg any) any {
	switch v := msg.(type) {
	case []any:
		if len(v) == 0 {
			return rpc.Response{JSONRPC: "2.0", Error: rpc.NewError(rpc.CodeInvalidRequest, "batch must not be empty")}
		}
		out := make([]rpc.Response, len(v))
		for i, item := range v {
			out[i] = s.handleSingle(item)
		}
		return out
	case map[string]any:
		return s.handleSingle(v)
	default:
		return rpc.Response{JSONRPC: "2.0", Error: rpc.NewError(rpc.CodeInvalidRequest, "request must be an object or an array")}
	}
}

func (s *Server) handleSingle(raw any) rpc.Response {
	obj, ok := raw.(map[string]any)
	if !ok {
		return rpc.Response{JSONRPC: "2.0", Error: rpc.NewError(rpc.CodeInvalidRequest, "request must be an object")}
	}
	id := obj["id"]

	method, _ := obj["method"].(string)
	if method == "" {
		return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeInvalidRequest, "missing method")}
	}

	var params []any
	if raw, ok := obj["params"]; ok && raw != nil {
		arr, ok := raw.([]any)
		if !ok {
			return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeInvalidParams, "params must be an array")}
		}
		params = arr
	}

	if method == rpc.MetaMethod {
		return rpc.Response{JSONRPC: "2.0", ID: id, Result: s.model.Contract()}
	}

	ifaceName, fnName, ok := rpc.SplitMethod(method)
	if !ok {
		return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeMethodNotFound, fmt.Sprintf("method has no interface separator: %s", method))}
	}

	iface, ok := s.model.Interface(ifaceName)
	if !ok {
		return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeMethodNotFound, "unknown interface: "+ifaceName)}
	}
	var fnSpec *idl.Function
	for i := range iface.Functions {
		if iface.Functions[i].Name == fnName {
			fnSpec = &iface.Functions[i]
			break
		}
	}
	if fnSpec == nil {
		return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeMethodNotFound, fmt.Sprintf("unknown function: %s.%s", ifaceName, fnName))}
	}

	handlers, ok := s.handlers[ifaceName]
	if !ok {
		return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeMethodNotFound, "no handler registered for interface: "+ifaceName)}
	}
	fn, ok := handlers[fnName]
	if !ok {
		return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeMethodNotFound, fmt.Sprintf("no handler registered for function: %s.%s", ifaceName, fnName))}
	}

	if s.validateRequest {
		if ok, msg := s.validateParams(fnSpec, params); !ok {
			return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeInvalidParams, fmt.Sprintf("%s.%s: %s", ifaceName, fnName, msg))}
		}
	}

	result, err := s.invoke(fn, params)
	if err != nil {
		s.log.Errorf("%s.%s: %v", ifaceName, fnName, err)
		return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.Wrap(err)}
	}

	if s.validateResponse && fnSpec.Returns != nil {
		if ok, msg := s.model.ValidateValue(fnSpec.Returns.Type, fnSpec.Returns.IsArray, fnSpec.Returns.Optional, result, false); !ok {
			return rpc.Response{JSONRPC: "2.0", ID: id, Error: rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("%s.%s: %s", ifaceName, fnName, msg))}
		}
	}

	return rpc.Response{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Server) validateParams(fn *idl.Function, params []any) (bool, string) {
	if len(params) != len(fn.Params) {
		return false, fmt.Sprintf("expected %d params, got %d", len(fn.Params), len(params))
	}
	for i, p := range fn.Params {
		if ok, msg := s.model.ValidateValue(p.Type, p.IsArray, false, params[i], true); !ok {
			return false, fmt.Sprintf("param %s: %s", p.Name, msg)
		}
	}
	return true, ""
}

// invoke calls the handler, converting a panic into a -32000 error so a
// single malformed handler never crashes the server.
func (s *Server) invoke(fn HandlerFunc, params []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rpc.NewError(rpc.CodeUnknownError, fmt.Sprintf("handler panicked: %v", r))
		}
	}()
	return fn(params)
}
