package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coopernurse/barrister/internal/rpc"
	"github.com/coopernurse/barrister/internal/web/middleware"
)

// HTTP is the client side of the HTTP transport: it POSTs the request as
// UTF-8 JSON to a fixed URL, reusing the underlying connection pool of
// its http.Client, and treats a non-2xx response as a transport failure.
type HTTP struct {
	URL     string
	Client  *http.Client
	Headers map[string]string
}

// NewHTTP builds an HTTP transport targeting url with a pooling client
// configured with sane default timeouts.
func NewHTTP(url string) *HTTP {
	return &HTTP{
		URL: url,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Headers: map[string]string{},
	}
}

func (t *HTTP) Submit(msg any) (any, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, rpc.NewError(rpc.CodeInternalError, fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequest(http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return nil, rpc.NewError(rpc.CodeUnknownError, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, rpc.NewError(rpc.CodeUnknownError, fmt.Sprintf("http request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rpc.NewError(rpc.CodeUnknownError, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rpc.NewError(rpc.CodeUnknownError, fmt.Sprintf("non-2xx response: %d: %s", resp.StatusCode, string(respBody)))
	}

	var out any
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, rpc.NewError(rpc.CodeInvalidResult, fmt.Sprintf("malformed response JSON: %v", err))
	}
	return out, nil
}

// byteDispatcher is satisfied by *server.Server.
type byteDispatcher interface {
	HandleBytes(data []byte) []byte
}

// maxRequestBodyBytes caps a single POST body, batched or not.
const maxRequestBodyBytes = 10 << 20 // 10MB

// Mount builds an http.Handler exposing the JSON-RPC POST endpoint and a
// /healthz GET, wrapped in the teacher's full middleware chain: recovery,
// request id, logging, a per-request timeout, gzip compression, and CORS
// for browser-based callers.
func Mount(s byteDispatcher) http.Handler {
	r := chi.NewRouter()

	chain := middleware.NewChain(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Timeout(30*time.Second),
		middleware.Compression(),
		middleware.CORS(),
	)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodPost, "/", chain.ThenFunc(func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxRequestBodyBytes)
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error":"%v"}`, err), http.StatusBadRequest)
			return
		}
		resp := s.HandleBytes(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(resp)
	}))

	// CORS preflight for browser-based JSON-RPC callers; the CORS
	// middleware itself answers the OPTIONS request before this handler
	// would ever run.
	r.Method(http.MethodOptions, "/", chain.ThenFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	return r
}
