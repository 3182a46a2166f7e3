// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

// LoggingRoundTripper adds a very primitive logging to a http transaction.
// It is wired in when LANDGODS_HTTP_TRACE is set, to debug the photo host
// without a proxy.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
}

// reduce the content of the lines.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	for i, line := range lines {
		if i < maxLines {
			lines[i] = fmt.Sprintf("%c %s", prefix, line)
		} else {
			break
		}
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			lines[i] = line[0:maxChars] + "…"
		}
	}

	return lines
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	// Bodies are multipart photo uploads; headers are enough.
	dump, err := httputil.DumpRequestOut(req, false)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	fmt.Fprint(t.Writer, strings.Join(append(lines, ""), "\n"))

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, false)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", time.Since(start))

	lines = abbreviate(strings.Split(string(dump), "\n"), '<')
	fmt.Fprint(t.Writer, strings.Join(append(lines, ""), "\n"))

	return resp, nil
}
