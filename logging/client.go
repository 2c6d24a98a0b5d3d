package logging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"cloud.google.com/go/logging"

	"github.com/input-output-hk/catalyst-forge-libs/gcp/auth"
	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// Severity levels re-exported for callers that do not import the SDK.
const (
	Default   = logging.Default
	Debug     = logging.Debug
	Info      = logging.Info
	Notice    = logging.Notice
	Warning   = logging.Warning
	Error     = logging.Error
	Critical  = logging.Critical
	Alert     = logging.Alert
	Emergency = logging.Emergency
)

// messageKey holds the message in structured payloads.
const messageKey = "message"

// Entry is a single log entry.
type Entry struct {
	Severity logging.Severity
	Message  string
	Labels   map[string]string

	// Fields turn the payload into a JSON object holding Message under "message"
	// next to each field. Values must be JSON serializable. An entry needs a
	// Message, Fields or both.
	Fields map[string]any

	// Timestamp defaults to the time of the write.
	Timestamp time.Time

	// LogID overrides the client's log ID.
	LogID string
}

// Client writes entries to Cloud Logging for one project.
type Client struct {
	api       API
	projectID string
	logID     string
	labels    map[string]string
	logger    *slog.Logger
}

// New creates a Cloud Logging client from the shared auth config.
func New(ctx context.Context, cfg *auth.Config, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	clientOpts, err := cfg.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	lc, err := logging.NewClient(ctx, cfg.ProjectID, append(clientOpts, o.clientOptions...)...)
	if err != nil {
		return nil, gcperrors.New("logging.New", cfg.ProjectID, err)
	}

	return newClient(newSDKAPI(lc), cfg.ProjectID, o), nil
}

// NewWithAPI creates a client over a custom API implementation.
// This is primarily used for testing with mocked clients.
func NewWithAPI(api API, projectID string, opts ...Option) *Client {
	return newClient(api, projectID, applyOptions(opts))
}

func newClient(api API, projectID string, o *clientOptions) *Client {
	return &Client{
		api:       api,
		projectID: projectID,
		logID:     o.logID,
		labels:    o.labels,
		logger:    o.logger.With("project_id", projectID),
	}
}

// ProjectID returns the project entries are written to.
func (c *Client) ProjectID() string {
	return c.projectID
}

// LogID returns the default log ID.
func (c *Client) LogID() string {
	return c.logID
}

// Close closes the underlying client.
func (c *Client) Close() error {
	if err := c.api.Close(); err != nil {
		return gcperrors.New("logging.Close", c.projectID, err)
	}
	return nil
}

// Log writes message at severity with optional labels.
func (c *Client) Log(ctx context.Context, severity logging.Severity, message string, labels map[string]string) error {
	return c.LogEntry(ctx, Entry{Severity: severity, Message: message, Labels: labels})
}

// Debug writes message at Debug severity.
func (c *Client) Debug(ctx context.Context, message string, labels map[string]string) error {
	return c.Log(ctx, Debug, message, labels)
}

// Info writes message at Info severity.
func (c *Client) Info(ctx context.Context, message string, labels map[string]string) error {
	return c.Log(ctx, Info, message, labels)
}

// Warning writes message at Warning severity.
func (c *Client) Warning(ctx context.Context, message string, labels map[string]string) error {
	return c.Log(ctx, Warning, message, labels)
}

// Error writes message at Error severity.
func (c *Client) Error(ctx context.Context, message string, labels map[string]string) error {
	return c.Log(ctx, Error, message, labels)
}

// LogEntry writes e synchronously.
func (c *Client) LogEntry(ctx context.Context, e Entry) error {
	const op = "logging.LogEntry"
	logID := e.LogID
	if logID == "" {
		logID = c.logID
	}
	ref := c.logPath(logID)
	if len(e.Fields) == 0 {
		if err := validation.Required(op, ref, validation.F("message", e.Message)); err != nil {
			return err
		}
	}

	if err := c.write(ctx, logID, e); err != nil {
		c.logger.ErrorContext(ctx, "failed to write log entry", "log_id", logID, "error", err)
		return gcperrors.New(op, ref, err)
	}
	return nil
}

// write converts e and sends it without validation or self-logging.
func (c *Client) write(ctx context.Context, logID string, e Entry) error {
	return c.api.LogSync(ctx, logID, logging.Entry{
		Timestamp: e.Timestamp,
		Severity:  e.Severity,
		Payload:   payload(e.Message, e.Fields),
		Labels:    c.mergeLabels(e.Labels),
	})
}

func (c *Client) mergeLabels(labels map[string]string) map[string]string {
	if len(c.labels) == 0 {
		return labels
	}
	merged := maps.Clone(c.labels)
	maps.Copy(merged, labels)
	return merged
}

func (c *Client) logPath(logID string) string {
	return "projects/" + c.projectID + "/logs/" + logID
}

func payload(message string, fields map[string]any) any {
	if len(fields) == 0 {
		return message
	}
	p := make(map[string]any, len(fields)+1)
	maps.Copy(p, fields)
	if message != "" {
		p[messageKey] = message
	}
	return p
}

// ParseSeverity returns the severity named by s, ignoring case. Unknown names
// yield Default.
func ParseSeverity(s string) logging.Severity {
	return logging.ParseSeverity(s)
}
