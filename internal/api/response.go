package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

const jsonRPCVersion = "2.0"

var nullID = json.RawMessage("null")

// RPCRequest is a JSON-RPC 2.0 request. Params are accepted and ignored.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// RPCResponse is a JSON-RPC 2.0 response. Exactly one of Result and Error
// is set.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// ErrorResponse is the body of a non-RPC error.
type ErrorResponse struct {
	Error         *RPCError `json:"error"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// decodeRPCRequest parses exactly one JSON-RPC object from r.
func decodeRPCRequest(r io.Reader) (*RPCRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req RPCRequest
	if err := dec.Decode(&req); err != nil {
		return nil, ErrBadRequest
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &req, ErrBadRequest
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		return &req, ErrBadRequest
	}
	return &req, nil
}

func responseID(req *RPCRequest) json.RawMessage {
	if req == nil || len(bytes.TrimSpace(req.ID)) == 0 {
		return nullID
	}
	return req.ID
}

func writeRPCResult(c echo.Context, id json.RawMessage, result json.RawMessage) error {
	return c.JSON(http.StatusOK, RPCResponse{JSONRPC: jsonRPCVersion, Result: result, ID: id})
}

func writeRPCError(c echo.Context, id json.RawMessage, err error) error {
	_, rpcErr := ToRPCError(err)
	return c.JSON(http.StatusOK, RPCResponse{JSONRPC: jsonRPCVersion, Error: rpcErr, ID: id})
}
