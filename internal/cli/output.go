// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authbridge.
//
// go-authbridge is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(msg string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": msg,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, msg)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintToken prints an authorization token
func (p *Printer) PrintToken(step string, token *message.AuthorizationToken) error {
	if token == nil {
		return p.PrintSuccess(fmt.Sprintf("%s: no authorization token issued", step))
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"step":       step,
			"token_type": token.Type,
			"token":      token.Value,
			"expires_at": token.ExpiresAt,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "%s:\n", step)
		fmt.Fprintf(p.writer, "  Token Type: %s\n", token.Type)
		fmt.Fprintf(p.writer, "  Token:      %s\n", token.Value)
		if !token.ExpiresAt.IsZero() {
			fmt.Fprintf(p.writer, "  Expires At: %s\n", token.ExpiresAt)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintDeviceInformation prints dispatch target metadata
func (p *Printer) PrintDeviceInformation(device message.DeviceInformation) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"name":       device.Name,
			"push_token": device.PushToken,
			"device_id":  device.DeviceID,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, "Device Information:")
		fmt.Fprintf(p.writer, "  Name:       %s\n", device.Name)
		if device.PushToken != "" {
			fmt.Fprintf(p.writer, "  Push Token: %s\n", device.PushToken)
		}
		if device.DeviceID != "" {
			fmt.Fprintf(p.writer, "  Device ID:  %s\n", device.DeviceID)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
