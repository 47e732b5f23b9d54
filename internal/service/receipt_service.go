package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/render"
	"github.com/mmynk/tabsplit/internal/scanning"
	"github.com/mmynk/tabsplit/internal/sharecodec"
	"github.com/mmynk/tabsplit/pkg/api"
)

// ReceiptService implements the Connect ReceiptService.
// It keeps no state: splitting happens on the client, the server only holds
// the model credentials and decodes share links.
type ReceiptService struct {
	extractor   scanning.Extractor
	interpreter scanning.Interpreter
}

// NewReceiptService creates a ReceiptService backed by the given model adapters.
func NewReceiptService(extractor scanning.Extractor, interpreter scanning.Interpreter) *ReceiptService {
	return &ReceiptService{extractor: extractor, interpreter: interpreter}
}

// ScanReceipt extracts a receipt from an uploaded image.
func (s *ReceiptService) ScanReceipt(ctx context.Context, req *connect.Request[api.ScanReceiptRequest]) (*connect.Response[api.ScanReceiptResponse], error) {
	if len(req.Msg.Image) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("image is required"))
	}
	slog.Debug("Scanning receipt", "bytes", len(req.Msg.Image), "mime_type", req.Msg.MimeType)

	receipt, err := s.extractor.ScanReceipt(ctx, req.Msg.Image, req.Msg.MimeType)
	if err != nil {
		slog.Error("ScanReceipt failed", "error", err)
		return nil, upstreamError(err)
	}

	slog.Info("Receipt scanned",
		"restaurant", receipt.RestaurantName,
		"items", len(receipt.Items),
		"currency", receipt.Currency,
		"items_include_tax", receipt.ItemsIncludeTax,
	)
	return connect.NewResponse(&api.ScanReceiptResponse{Receipt: *receipt}), nil
}

// InterpretCommand turns a free-text instruction into assignment updates.
func (s *ReceiptService) InterpretCommand(ctx context.Context, req *connect.Request[api.InterpretCommandRequest]) (*connect.Response[api.InterpretCommandResponse], error) {
	message := strings.TrimSpace(req.Msg.Message)
	if message == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("message is required"))
	}
	if len(req.Msg.Snapshot.Items) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("snapshot has no items"))
	}

	result, err := s.interpreter.InterpretCommand(ctx, message, req.Msg.Snapshot)
	if err != nil {
		slog.Error("InterpretCommand failed", "error", err)
		return nil, upstreamError(err)
	}

	slog.Debug("Command interpreted",
		"updates", len(result.Assignments),
		"new_people", result.NewPeople,
	)
	return connect.NewResponse(&api.InterpretCommandResponse{Result: *result}), nil
}

// DecodeShare decodes a share token, or a full share URL, into the shared
// breakdown and its share message.
func (s *ReceiptService) DecodeShare(ctx context.Context, req *connect.Request[api.DecodeShareRequest]) (*connect.Response[api.DecodeShareResponse], error) {
	token := strings.TrimSpace(req.Msg.Token)
	if t, ok := sharecodec.TokenFromURL(token); ok {
		token = t
	}

	shared, err := sharecodec.Decode(token)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	return connect.NewResponse(&api.DecodeShareResponse{
		Shared:  *shared,
		Message: render.ShareMessage(*shared),
	}), nil
}

// upstreamError maps a model adapter failure to a Connect error.
func upstreamError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, scanning.ErrNoItems):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, scanning.ErrMalformedResponse):
		return connect.NewError(connect.CodeUnavailable, err)
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	return connect.NewError(connect.CodeUnavailable, fmt.Errorf("model backend: %w", err))
}
