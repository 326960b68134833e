// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// Standardize enforces the canonical result contract on whatever a
// converter returned. It applies regardless of the converter's behavior:
// Success is true only when explicitly returned, Content is never empty,
// Images defaults to an empty slice, Metadata["converter"] is always
// populated, and Error is present exactly when Success is false.
func Standardize(raw *types.Result, convErr error, name, token, converter string, category types.Category) *types.Result {
	if convErr != nil || raw == nil {
		if convErr == nil {
			convErr = errors.New("converter returned no result")
		}
		return failedResult(convErr, name, token, converter, category)
	}

	res := *raw

	if res.Name == "" {
		res.Name = name
	}
	if res.Type == "" {
		res.Type = token
	}
	if res.Category == "" {
		res.Category = category
	}
	if res.Images == nil {
		res.Images = []types.ImageRef{}
	}
	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}
	if res.ConverterName() == "" {
		if converter == "" {
			converter = "unknown"
		}
		res.Metadata["converter"] = converter
	}

	// Async acknowledgement: a long-running remote job was accepted.
	// Preserve the shape verbatim, adding only a placeholder body so
	// downstream consumers still hold a valid document.
	if res.Async && res.ConversionID != "" {
		if strings.TrimSpace(res.Content) == "" {
			res.Content = fmt.Sprintf(
				"# %s\n\nConversion %s is still processing. Poll the job for the final document.\n",
				res.Name, res.ConversionID)
		}
		return &res
	}

	if res.Success {
		res.Error = ""
		if strings.TrimSpace(res.Content) == "" {
			res.Content = fmt.Sprintf(
				"# %s\n\nThe document was processed but contained no extractable text.\n", res.Name)
		}
		return &res
	}

	if res.Error == "" {
		res.Error = "conversion failed"
	}
	if strings.TrimSpace(res.Content) == "" {
		res.Content = diagnosticDocument(res.Name, res.Type, res.Error)
	}
	return &res
}

// failedResult synthesizes the canonical failure value for a converter
// error. Remote-service failures carry their remediation hint into the
// diagnostic body.
func failedResult(convErr error, name, token, converter string, category types.Category) *types.Result {
	msg := convErr.Error()
	body := diagnosticDocument(name, token, msg)

	var remote *types.RemoteServiceError
	if errors.As(convErr, &remote) && remote.Hint != "" {
		body += fmt.Sprintf("\n**What to try:** %s\n", remote.Hint)
	}

	return &types.Result{
		Success:  false,
		Content:  body,
		Type:     token,
		Name:     name,
		Category: category,
		Metadata: map[string]any{"converter": orUnknown(converter)},
		Images:   []types.ImageRef{},
		Error:    msg,
	}
}

// diagnosticDocument renders a failure as a valid Markdown document so
// downstream consumers (file writer, viewer) always have something to
// operate on.
func diagnosticDocument(name, token, errMsg string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversion failed: %s\n\n", name)
	fmt.Fprintf(&b, "- **Type:** %s\n", token)
	fmt.Fprintf(&b, "- **Time:** %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Error:** %s\n", errMsg)
	return b.String()
}

func orUnknown(converter string) string {
	if converter == "" {
		return "unknown"
	}
	return converter
}
