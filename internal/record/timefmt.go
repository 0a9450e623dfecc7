/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package record

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const displayTimeLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
}

// FormatTimestamp renders a heterogeneous timestamp value for display.
// Numbers are Unix second counts. Elapsed-time strings ("0:00:00.143453")
// are suppressed to N/A since they are durations, not points in time.
// Unparsable strings come back unchanged so bad upstream data stays
// visible.
func FormatTimestamp(value any) string {
	switch v := value.(type) {
	case nil:
		return NotAvailable
	case time.Time:
		return v.Format(displayTimeLayout)
	case float64:
		return time.Unix(int64(v), 0).Format(displayTimeLayout)
	case int64:
		return time.Unix(v, 0).Format(displayTimeLayout)
	case int:
		return time.Unix(int64(v), 0).Format(displayTimeLayout)
	case string:
		return formatTimestampString(v)
	default:
		return NotAvailable
	}
}

// FormatTimestampResult renders a raw JSON timestamp field, which may be
// a number (epoch seconds) or a string.
func FormatTimestampResult(res gjson.Result) string {
	switch res.Type {
	case gjson.Number:
		return FormatTimestamp(res.Float())
	case gjson.String:
		return formatTimestampString(res.String())
	default:
		return NotAvailable
	}
}

func formatTimestampString(s string) string {
	if s == "" || s == NotAvailable {
		return NotAvailable
	}

	if isElapsedTime(s) {
		return NotAvailable
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed.Format(displayTimeLayout)
		}
	}

	// Keep the raw value so the caller retains diagnostic visibility.
	return s
}

func isElapsedTime(s string) bool {
	return strings.HasPrefix(s, "0:") && strings.Contains(s, ":") && strings.Contains(s, ".")
}
