package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Common display value formatters and parsers

// BeatDivisionLabels names the beat picker divisions, shortest first.
var BeatDivisionLabels = []string{"1/16", "1/8", "1/4", "1/2", "1", "2", "4", "8", "16"}

// PercentFormatter formats percentage values
func PercentFormatter(value int64) string {
	return fmt.Sprintf("%d%%", value)
}

// PercentParser parses percentage strings
func PercentParser(str string) (int64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseInt(strings.TrimSpace(str), 10, 64)
}

// OnOffFormatter formats a toggle as On/Off
func OnOffFormatter(value int64) string {
	if value != 0 {
		return "On"
	}
	return "Off"
}

// OnOffParser parses On/Off strings
func OnOffParser(str string) (int64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	switch str {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	default:
		return 0, fmt.Errorf("expected 'on' or 'off', got: %s", str)
	}
}

// BeatFormatter formats a beat picker index as "On <division>"
func BeatFormatter(index int64) string {
	if index < 0 {
		index = 0
	}
	if int(index) >= len(BeatDivisionLabels) {
		index = int64(len(BeatDivisionLabels) - 1)
	}
	return "On " + BeatDivisionLabels[index]
}

// LabelFormatter returns labels[value], clamped to the list
func LabelFormatter(labels []string, value int64) string {
	if len(labels) == 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if int(value) >= len(labels) {
		value = int64(len(labels) - 1)
	}
	return labels[value]
}
