// File: internal/interpret/extract.go
package interpret

import (
	"fmt"
	"regexp"
	"strings"
)

// A regex to robustly extract a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile(fmt.Sprintf("(?s)%s(?:json)?\\s*(.*?)\\s*%s", "```", "```"))

// langTagRegex matches a bare fence language tag ("python", "sql") that can
// survive block extraction as the first line of the content.
var langTagRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+-]*$`)

// ExtractJSON pulls the JSON payload out of an advice response, handling
// markdown code blocks, surrounding prose, or raw JSON.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	matches := jsonBlockRegex.FindStringSubmatch(response)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	firstBracket := strings.Index(response, "{")
	lastBracket := strings.LastIndex(response, "}")
	if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
		return response[firstBracket : lastBracket+1]
	}
	return response
}
