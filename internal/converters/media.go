// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// MediaConverter produces a metadata sheet for audio and video files by
// probing them with ffprobe. It does not transcode.
type MediaConverter struct {
	Category types.Category
}

// probeOutput is the subset of ffprobe's JSON report we render.
type probeOutput struct {
	Format struct {
		FormatLongName string            `json:"format_long_name"`
		Duration       string            `json:"duration"`
		BitRate        string            `json:"bit_rate"`
		Tags           map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

func (c *MediaConverter) Convert(ctx context.Context, req *types.Request) (*types.Result, error) {
	if len(req.Content) == 0 {
		return nil, &types.ValidationError{Field: "content", Reason: "empty media source"}
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		"pipe:0")
	cmd.Stdin = bytes.NewReader(req.Content)

	out, err := cmd.Output()
	if err != nil {
		return nil, &types.ConversionError{Converter: "media-probe", Err: fmt.Errorf("running ffprobe: %w", err)}
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, &types.ConversionError{Converter: "media-probe", Err: fmt.Errorf("parsing ffprobe output: %w", err)}
	}

	types.Report(req.Progress, 80, string(types.StatusGeneratingMarkdown))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", req.Name)
	fmt.Fprintf(&b, "## Media Information\n\n")
	writeFact(&b, "Container", probe.Format.FormatLongName)
	writeFact(&b, "Duration", formatDuration(probe.Format.Duration))
	writeFact(&b, "Bit rate", formatBitRate(probe.Format.BitRate))

	for _, s := range probe.Streams {
		switch s.CodecType {
		case "audio":
			detail := s.CodecName
			if s.SampleRate != "" {
				detail += fmt.Sprintf(", %s Hz", s.SampleRate)
			}
			if s.Channels > 0 {
				detail += fmt.Sprintf(", %d channel(s)", s.Channels)
			}
			writeFact(&b, "Audio", detail)
		case "video":
			detail := s.CodecName
			if s.Width > 0 && s.Height > 0 {
				detail += fmt.Sprintf(", %dx%d", s.Width, s.Height)
			}
			writeFact(&b, "Video", detail)
		}
	}

	if len(probe.Format.Tags) > 0 {
		b.WriteString("\n## Tags\n\n")
		keys := make([]string, 0, len(probe.Format.Tags))
		for k := range probe.Format.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeFact(&b, titleCase(k), probe.Format.Tags[k])
		}
	}

	return &types.Result{
		Success:  true,
		Content:  b.String(),
		Type:     req.Type,
		Name:     req.Name,
		Category: c.Category,
		Metadata: map[string]any{
			"converter": "media-probe",
			"container": probe.Format.FormatLongName,
			"duration":  probe.Format.Duration,
		},
	}, nil
}

func writeFact(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", label, value)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatDuration(raw string) string {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func formatBitRate(raw string) string {
	bits, err := strconv.Atoi(raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%d kb/s", bits/1000)
}
