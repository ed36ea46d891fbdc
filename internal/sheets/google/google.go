package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/singleflight"

	ports "gagyebu/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// ErrNoCredentials is returned when neither inline nor file credentials are set.
var ErrNoCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")

type Client struct {
	svc *gsheet.Service
	// reads collapses identical concurrent imports, e.g. a double submit.
	reads singleflight.Group
}

// Ensure interface conformance
var _ ports.TableReader = (*Client)(nil)

// Credentials names a service account key, inline or on disk. Inline JSON
// wins when both are set.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.JSON) != "" || strings.TrimSpace(c.File) != ""
}

// New creates a read-only Sheets client from service account credentials.
func New(ctx context.Context, creds Credentials) (*Client, error) {
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service) *Client {
	return &Client{svc: svc}
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var (
		credentialsJSON []byte
		err             error
	)
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", creds.File)
		credentialsJSON, err = os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, ErrNoCredentials
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadTable reads an A1 range whose first row is the header. Values are
// requested unformatted so dates arrive as serial numbers and amounts without
// grouping, matching what the xlsx reader produces.
func (c *Client) ReadTable(ctx context.Context, spreadsheetID, readRange string) (ports.Table, error) {
	if c.svc == nil {
		return ports.Table{}, errors.New("sheets service not initialized")
	}
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	readRange = strings.TrimSpace(readRange)
	if spreadsheetID == "" || readRange == "" {
		return ports.Table{}, errors.New("spreadsheet id and range are required")
	}

	v, err, shared := c.reads.Do(spreadsheetID+"\x00"+readRange, func() (interface{}, error) {
		resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("SERIAL_NUMBER").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", readRange, err)
		}
		slog.InfoContext(ctx, "Read spreadsheet range",
			"range", resp.Range,
			"rows", len(resp.Values))
		return resp.Values, nil
	})
	if err != nil {
		return ports.Table{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Joined in-flight spreadsheet read", "range", readRange)
	}
	// Each caller gets its own Table built from the shared response.
	return parseValues(v.([][]interface{})), nil
}
