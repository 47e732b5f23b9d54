package scanning

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/pkg/api"
)

// Remote implements Scanner by calling a tabsplit server, which holds the
// model credentials.
type Remote struct {
	client *api.ReceiptServiceClient
}

// NewRemote creates a scanner for the server at baseURL.
func NewRemote(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Remote {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Remote{client: api.NewReceiptServiceClient(httpClient, baseURL, opts...)}
}

func (r *Remote) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error) {
	resp, err := r.client.ScanReceipt(ctx, connect.NewRequest(&api.ScanReceiptRequest{
		Image:    image,
		MimeType: mimeType,
	}))
	if err != nil {
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}
	receipt := resp.Msg.Receipt
	return &receipt, nil
}

func (r *Remote) InterpretCommand(ctx context.Context, message string, snapshot models.CommandSnapshot) (*models.CommandResult, error) {
	resp, err := r.client.InterpretCommand(ctx, connect.NewRequest(&api.InterpretCommandRequest{
		Message:  message,
		Snapshot: snapshot,
	}))
	if err != nil {
		return nil, fmt.Errorf("interpreting command: %w", err)
	}
	result := resp.Msg.Result
	return &result, nil
}

// Close is a no-op.
func (r *Remote) Close() error {
	return nil
}
