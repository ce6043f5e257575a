// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package format

import (
	"encoding/json"
	"io"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

// JSONFormatter formats results as full JSON. JSON is the only lossless
// format: every directive, define record, and finding survives a round trip.
type JSONFormatter struct {
	indent bool
}

// NewJSONFormatter creates a new JSON formatter with indentation.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{indent: true}
}

// NewJSONFormatterCompact creates a JSON formatter without indentation.
func NewJSONFormatterCompact() *JSONFormatter {
	return &JSONFormatter{indent: false}
}

// Format converts the result to a JSON string.
func (f *JSONFormatter) Format(result *analyzer.Result) (string, error) {
	var data []byte
	var err error

	if f.indent {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// FormatStreaming writes JSON to a writer.
func (f *JSONFormatter) FormatStreaming(result *analyzer.Result, w io.Writer) error {
	out, err := f.Format(result)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Name returns the format name.
func (f *JSONFormatter) Name() FormatType {
	if !f.indent {
		return FormatCompact
	}
	return FormatJSON
}
