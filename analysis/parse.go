// Copyright 2025 Poiesic Systems
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


package analysis

import (
	"strings"
	"unicode"

	"github.com/poiesic/lexgraph/core"
)

// Entity categories recognized by ParseEntities.
var entityCategories = []string{
	"people", "organizations", "statutes", "dates", "amounts", "locations",
}

// ParseList extracts list items from a model response. An item is a line
// prefixed with a digit marker ("1.", "2)"), a dash, or a bullet. When no
// line carries a marker the whole trimmed response becomes a single item
// and ok is false so the caller can flag the degraded parse.
func ParseList(raw string) ([]string, bool) {
	var items []string

	for _, line := range strings.Split(raw, "\n") {
		if item, ok := stripListMarker(line); ok {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		return items, true
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}
	return []string{trimmed}, false
}

// stripListMarker removes a leading list marker from a line.
// Returns ok=false for lines that are not list items.
func stripListMarker(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}

	// Dash or bullet markers
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(trimmed, marker) {
			item := strings.TrimSpace(trimmed[len(marker):])
			return item, item != ""
		}
	}

	// Digit markers: "1.", "2)", "10."
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') {
		item := strings.TrimSpace(trimmed[i+1:])
		return item, item != ""
	}

	return "", false
}

// ParseEntities extracts categorized entities from a model response shaped
// as category headers followed by list items:
//
//	People:
//	- Jane Doe
//	Organizations:
//	- Acme Corp
//
// Unrecognized headers are ignored. Every known category is present in the
// result, empty when nothing was found under it. ok is false when the
// response yielded no entities at all.
func ParseEntities(raw string) (map[string][]string, bool) {
	entities := make(map[string][]string, len(entityCategories))
	for _, category := range entityCategories {
		entities[category] = []string{}
	}

	current := ""
	found := false
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if category, ok := matchCategoryHeader(trimmed); ok {
			current = category
			continue
		}
		if current == "" {
			continue
		}
		if item, ok := stripListMarker(trimmed); ok {
			entities[current] = append(entities[current], item)
			found = true
		}
	}

	return entities, found
}

// matchCategoryHeader recognizes "People:" style headers, case-insensitive.
func matchCategoryHeader(line string) (string, bool) {
	header := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(line), ":"))
	if !strings.HasSuffix(strings.TrimSpace(line), ":") {
		return "", false
	}
	for _, category := range entityCategories {
		if header == category {
			return category, true
		}
	}
	return "", false
}

// ParseRiskLevel finds the earliest risk label in the response, matched
// case-insensitively as a whole word so "below" or "allows" never count.
// A response mentioning no label is RiskUnknown.
func ParseRiskLevel(raw string) core.RiskLevel {
	words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	for _, word := range words {
		switch word {
		case "low":
			return core.RiskLow
		case "medium":
			return core.RiskMedium
		case "high":
			return core.RiskHigh
		}
	}
	return core.RiskUnknown
}
