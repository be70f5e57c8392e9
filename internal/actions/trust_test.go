package actions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/actions-audit/internal/actions"
)

func TestTrustSetIsUntrusted(testInstance *testing.T) {
	testCases := []struct {
		name      string
		trusted   []string
		namespace string
		expected  bool
	}{
		{name: "empty_set_reports_everything", trusted: nil, namespace: "actions", expected: true},
		{name: "trusted_namespace", trusted: []string{"actions", "github"}, namespace: "github", expected: false},
		{name: "untrusted_namespace", trusted: []string{"actions"}, namespace: "some-vendor", expected: true},
		{name: "entries_are_trimmed", trusted: []string{"  trusted-org "}, namespace: "trusted-org", expected: false},
		{name: "match_is_case_sensitive", trusted: []string{"Actions"}, namespace: "actions", expected: true},
		{name: "blank_entries_ignored", trusted: []string{"", "  "}, namespace: "", expected: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			trustSet := actions.NewTrustSet(testCase.trusted)
			require.Equal(testInstance, testCase.expected, trustSet.IsUntrusted(testCase.namespace))
		})
	}
}

func TestTrustSetZeroValueTrustsNothing(testInstance *testing.T) {
	var trustSet actions.TrustSet
	require.True(testInstance, trustSet.IsUntrusted("actions"))
	require.Zero(testInstance, trustSet.Len())
}

func TestNewTrustSetDeduplicates(testInstance *testing.T) {
	trustSet := actions.NewTrustSet([]string{"actions", "actions", "github", ""})
	require.Equal(testInstance, 2, trustSet.Len())
}
