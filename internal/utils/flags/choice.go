package flags

import (
	"fmt"
	"strings"
)

const (
	choiceSeparatorConstant     = "|"
	choicePlaceholderTemplate   = "<%s>"
	choiceUsageTemplateConstant = "%s %s"
)

// FormatChoiceUsage renders flag usage as "<a|B|c> description" with the default choice upper-cased.
// Blank and case-insensitively repeated choices are dropped.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := fmt.Sprintf(choicePlaceholderTemplate, strings.Join(displayChoices(defaultChoice, choices), choiceSeparatorConstant))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return placeholder
	}
	return fmt.Sprintf(choiceUsageTemplateConstant, placeholder, trimmedDescription)
}

func displayChoices(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayed := make([]string, 0, len(choices))
	seenChoices := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, seen := seenChoices[normalizedChoice]; seen {
			continue
		}
		seenChoices[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		displayed = append(displayed, trimmedChoice)
	}

	return displayed
}
