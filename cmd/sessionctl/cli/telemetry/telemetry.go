// Package telemetry reports anonymous usage events. It is disabled by the
// SESSIONCTL_NO_TELEMETRY environment variable or the telemetry setting, and
// every entry point is safe to call on a nil client.
package telemetry

import (
	"context"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/logging"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/settings"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/versioninfo"
)

const (
	apiKey   = "phc_sessionctl_public"
	endpoint = "https://us.i.posthog.com"
	appID    = "sessionctl"
)

// Client wraps a posthog client plus the stable anonymous machine id.
type Client struct {
	ph         posthog.Client
	distinctID string
}

// New builds a telemetry client, or nil when telemetry is disabled or the
// machine id cannot be derived. A nil client is valid and inert.
func New(ctx context.Context, s *settings.Settings) *Client {
	if s == nil || !s.TelemetryEnabled() {
		return nil
	}

	id, err := machineid.ProtectedID(appID)
	if err != nil {
		logging.Debug(ctx, "failed to derive machine id, telemetry disabled", "error", err)
		return nil
	}

	ph, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		logging.Debug(ctx, "failed to build telemetry client", "error", err)
		return nil
	}

	return &Client{ph: ph, distinctID: id}
}

// CaptureCommand records a command invocation. Failures are logged and
// swallowed so telemetry can never break a command.
func (c *Client) CaptureCommand(ctx context.Context, command string) {
	if c == nil {
		return
	}
	err := c.ph.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      "command_run",
		Properties: posthog.NewProperties().
			Set("command", command).
			Set("version", versioninfo.Version),
	})
	if err != nil {
		logging.Debug(ctx, "failed to enqueue telemetry event", "error", err)
	}
}

// Close flushes buffered events. Safe on a nil client.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if err := c.ph.Close(); err != nil {
		logging.Debug(context.Background(), "failed to close telemetry client", "error", err)
	}
}
