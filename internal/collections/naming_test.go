package collections_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/vectord/internal/collections"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "already clean", input: "feedback", want: "feedback"},
		{name: "uppercase lowered", input: "Feedback", want: "feedback"},
		{name: "mixed separators", input: "Feedback-False_Positive", want: "feedback_false_positive"},
		{name: "spaces become underscores", input: "my project", want: "my_project"},
		{name: "leading and trailing trimmed", input: "--tenant--", want: "tenant"},
		{name: "only punctuation collapses to empty", input: "!!!", want: ""},
		{name: "digits kept", input: "team42", want: "team42"},
		{name: "unicode replaced then trimmed", input: "café", want: "caf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collections.Sanitize(tt.input)
			assert.Equal(t, tt.want, got)
			for _, r := range got {
				assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_',
					"sanitized output must be [a-z0-9_], got %q", got)
			}
			if got != "" {
				assert.NotEqual(t, byte('_'), got[0])
				assert.NotEqual(t, byte('_'), got[len(got)-1])
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		logical   string
		namespace string
		want      string
	}{
		{name: "no namespace", logical: "memories", namespace: "", want: "memories"},
		{name: "plain namespace", logical: "memories", namespace: "staging", want: "memories_staging"},
		{name: "namespace sanitized", logical: "memories", namespace: "Feedback-False_Positive", want: "memories_feedback_false_positive"},
		{name: "namespace collapses to default", logical: "documents", namespace: "___", want: "documents"},
		{name: "documents family", logical: "documents", namespace: "Tenant 9", want: "documents_tenant_9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collections.Resolve(tt.logical, tt.namespace))
		})
	}
}
