// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

// OutputFormat selects how command results are printed
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
)

// Formatter prints decoded results
type Formatter struct {
	format OutputFormat
	writer io.Writer
}

// NewFormatter creates a formatter writing to stdout
func NewFormatter(format string) (*Formatter, error) {
	switch f := OutputFormat(format); f {
	case FormatJSON, FormatTable:
		return &Formatter{format: f, writer: os.Stdout}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// PrintResult prints res. object labels a single-property result, which
// carries no object identifier of its own
func (f *Formatter) PrintResult(object string, res *gateway.DecodedResult) error {
	if f.format == FormatJSON {
		body, err := res.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(f.writer, "%s\n", body)
		return err
	}

	var rows [][]string
	if res.Single != nil {
		rows = append(rows, resultRow(object, *res.Single))
	}
	for _, obj := range res.Objects {
		key := gateway.ObjectKey(obj.Object)
		for _, p := range obj.Properties {
			rows = append(rows, resultRow(key, p))
		}
	}
	f.PrintTable([]string{"OBJECT", "PROPERTY", "INDEX", "VALUE"}, rows)
	return nil
}

func resultRow(object string, p gateway.PropertyResult) []string {
	index := ""
	if p.ArrayIndex != nil {
		index = strconv.FormatUint(uint64(*p.ArrayIndex), 10)
	}

	var unrep *gateway.UnrepresentableValueError
	value := p.Value.String()
	switch {
	case errors.As(p.Err, &unrep):
		value = unrep.Fallback
	case p.Err != nil:
		value = "error: " + p.Err.Error()
	}
	return []string{object, gateway.PropertyKey(p.Property), index, value}
}

// PrintTable prints rows in aligned columns under headers
func (f *Formatter) PrintTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s ", widths[i], cell)
			}
		}
		fmt.Fprintln(f.writer, strings.TrimRight(b.String(), " "))
	}

	printRow(headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	printRow(sep)
	for _, row := range rows {
		printRow(row)
	}
}
