// Package api defines the Connect ReceiptService: its procedures, request and
// response messages, and typed handler / client constructors.
//
// Messages are plain Go structs carried as JSON, so any Connect client that
// speaks the JSON codec (including curl) can call the service:
//
//	curl -H 'Content-Type: application/json' \
//	  -d '{"token":"..."}' http://localhost:8080/tabsplit.v1.ReceiptService/DecodeShare
package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/models"
)

const (
	// ReceiptServiceName is the fully-qualified name of the service.
	ReceiptServiceName = "tabsplit.v1.ReceiptService"

	ScanReceiptProcedure      = "/" + ReceiptServiceName + "/ScanReceipt"
	InterpretCommandProcedure = "/" + ReceiptServiceName + "/InterpretCommand"
	DecodeShareProcedure      = "/" + ReceiptServiceName + "/DecodeShare"
)

type ScanReceiptRequest struct {
	// Image is the raw image (or PDF) bytes; base64 in JSON.
	Image    []byte `json:"image"`
	MimeType string `json:"mimeType"`
}

type ScanReceiptResponse struct {
	Receipt models.Receipt `json:"receipt"`
}

type InterpretCommandRequest struct {
	Message  string                 `json:"message"`
	Snapshot models.CommandSnapshot `json:"snapshot"`
}

type InterpretCommandResponse struct {
	Result models.CommandResult `json:"result"`
}

type DecodeShareRequest struct {
	// Token may be a bare token or a full share URL.
	Token string `json:"token"`
}

type DecodeShareResponse struct {
	Shared  models.SharedBreakdown `json:"shared"`
	Message string                 `json:"message"`
}

// ReceiptServiceHandler is implemented by the server.
type ReceiptServiceHandler interface {
	ScanReceipt(context.Context, *connect.Request[ScanReceiptRequest]) (*connect.Response[ScanReceiptResponse], error)
	InterpretCommand(context.Context, *connect.Request[InterpretCommandRequest]) (*connect.Response[InterpretCommandResponse], error)
	DecodeShare(context.Context, *connect.Request[DecodeShareRequest]) (*connect.Response[DecodeShareResponse], error)
}

// NewReceiptServiceHandler builds an HTTP handler for the service. The
// returned path is the prefix to mount it under.
func NewReceiptServiceHandler(svc ReceiptServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ScanReceiptProcedure, connect.NewUnaryHandler(ScanReceiptProcedure, svc.ScanReceipt, opts...))
	mux.Handle(InterpretCommandProcedure, connect.NewUnaryHandler(InterpretCommandProcedure, svc.InterpretCommand, opts...))
	mux.Handle(DecodeShareProcedure, connect.NewUnaryHandler(DecodeShareProcedure, svc.DecodeShare, opts...))
	return "/" + ReceiptServiceName + "/", mux
}

// ReceiptServiceClient calls a remote ReceiptService.
type ReceiptServiceClient struct {
	scanReceipt      *connect.Client[ScanReceiptRequest, ScanReceiptResponse]
	interpretCommand *connect.Client[InterpretCommandRequest, InterpretCommandResponse]
	decodeShare      *connect.Client[DecodeShareRequest, DecodeShareResponse]
}

// NewReceiptServiceClient returns a client for the service at baseURL
// (e.g., http://localhost:8080).
func NewReceiptServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ReceiptServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &ReceiptServiceClient{
		scanReceipt:      connect.NewClient[ScanReceiptRequest, ScanReceiptResponse](httpClient, baseURL+ScanReceiptProcedure, opts...),
		interpretCommand: connect.NewClient[InterpretCommandRequest, InterpretCommandResponse](httpClient, baseURL+InterpretCommandProcedure, opts...),
		decodeShare:      connect.NewClient[DecodeShareRequest, DecodeShareResponse](httpClient, baseURL+DecodeShareProcedure, opts...),
	}
}

func (c *ReceiptServiceClient) ScanReceipt(ctx context.Context, req *connect.Request[ScanReceiptRequest]) (*connect.Response[ScanReceiptResponse], error) {
	return c.scanReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) InterpretCommand(ctx context.Context, req *connect.Request[InterpretCommandRequest]) (*connect.Response[InterpretCommandResponse], error) {
	return c.interpretCommand.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) DecodeShare(ctx context.Context, req *connect.Request[DecodeShareRequest]) (*connect.Response[DecodeShareResponse], error) {
	return c.decodeShare.CallUnary(ctx, req)
}
