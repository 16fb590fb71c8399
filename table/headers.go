package table

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"

	"github.com/pivolan/sales_analyzer/domain/models"
)

var (
	nonAlnum     = regexp.MustCompile("[^a-zA-Z0-9]+")
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`),
		regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`),
		regexp.MustCompile(`^\d{2}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[\sT]\d{2}:\d{2}:\d{2}`),
	}
)

// AnalyzeHeaders decides whether the first row is a header and derives unique names and keys.
func AnalyzeHeaders(firstRow []string) *models.HeaderAnalysis {
	if len(firstRow) == 0 {
		return nil
	}

	result := &models.HeaderAnalysis{
		Headers:      make([]string, len(firstRow)),
		FirstDataRow: firstRow,
	}

	headerLikeCount := 0
	for _, field := range firstRow {
		if isLikelyHeader(field) {
			headerLikeCount++
		}
	}

	if float64(headerLikeCount)/float64(len(firstRow)) >= 0.5 {
		for i, header := range firstRow {
			result.Headers[i] = cleanHeaderName(header, i)
		}
	} else {
		result.FirstRowIsData = true
		for i := range firstRow {
			result.Headers[i] = generateColumnName(i)
		}
	}

	result.Headers = ValidateHeaders(result.Headers)
	result.Keys = make([]string, len(result.Headers))
	for i, h := range result.Headers {
		result.Keys[i] = HeaderKey(h)
	}
	result.Keys = ValidateHeaders(result.Keys)
	return result
}

// isLikelyHeader reports whether a cell reads like a column title.
func isLikelyHeader(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return false
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(text) {
			return false
		}
	}

	letters, digits, specials := 0, 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
		default:
			specials++
		}
	}
	totalChars := letters + digits + specials
	if totalChars == 0 {
		return false
	}
	// at least 30% letters reads as a title
	return letters > 0 && float64(letters)/float64(totalChars) >= 0.3
}

func generateColumnName(index int) string {
	return fmt.Sprintf("column_%d", index+1)
}

// ValidateHeaders fills empty names and suffixes duplicates.
func ValidateHeaders(headers []string) []string {
	seen := make(map[string]bool)
	result := make([]string, len(headers))

	for i, header := range headers {
		candidate := header
		for counter := 1; seen[candidate]; counter++ {
			candidate = fmt.Sprintf("%s_%d", header, counter)
		}
		seen[candidate] = true
		result[i] = candidate
	}
	return result
}

// cleanHeaderName keeps the header as the user wrote it, only trimmed.
// Headers are what the user picks from, so accents and spaces stay.
func cleanHeaderName(header string, index int) string {
	header = strings.Join(strings.Fields(header), " ")
	if header == "" {
		return generateColumnName(index)
	}
	return header
}

// HeaderKey turns a display header into an ascii slug: "Preço Unitário" -> "preco_unitario".
func HeaderKey(header string) string {
	key := replaceSpecialSymbols(unidecode.Unidecode(header))
	if key == "" {
		return "column"
	}
	return strings.ToLower(key)
}

func replaceSpecialSymbols(input string) string {
	processed := nonAlnum.ReplaceAllString(input, "_")
	return strings.Trim(processed, "_")
}
