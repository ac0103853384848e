package network

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/tabulario/datalens/internal/dispatch"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// Request is one protocol frame: an operation name plus arguments.
type Request struct {
	Op   string         `json:"op"`
	Args map[string]any `json:"args"`
}

// invokeTimeout bounds a single operation, chart rendering included.
const invokeTimeout = 30 * time.Second

// Start runs the TCP protocol server. Each connection carries a
// stream of JSON requests; every response is the dispatcher's result
// envelope, relayed verbatim.
func Start(addr string, dispatcher *dispatch.Dispatcher) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("Failed to bind", "addr", addr, "error", err)
		return err
	}
	defer listener.Close()

	slog.Info("Protocol server listening", "addr", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			slog.Error("Failed to accept connection", "error", err)
			continue
		}
		go handleConnection(conn, dispatcher)
	}
}

func handleConnection(conn net.Conn, dispatcher *dispatch.Dispatcher) {
	defer conn.Close()

	connID := uuid.NewString()
	slog.Debug("connection opened", "conn_id", connID, "remote", conn.RemoteAddr())

	// Use Decoder instead of Scanner for network streams
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return // Connection closed gracefully
			}
			slog.Error("decode error", "conn_id", connID, "error", err)

			// Send error back to client
			errResult := dispatch.Result{
				Error: errs.NewInvalidArguments("invalid request format: %v", err),
			}
			_ = encoder.Encode(errResult)
			return
		}

		if req.Op == "exit" || req.Op == "\\q" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), invokeTimeout)
		result := dispatcher.Invoke(ctx, req.Op, req.Args)
		cancel()

		if err := encoder.Encode(result); err != nil {
			slog.Error("encode error", "conn_id", connID, "error", err)
			return
		}
	}
}
