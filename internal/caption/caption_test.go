package caption

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantMsg string
	}{
		{
			name: "plain json",
			text: `{"title":"Wipe counters","description":"Clear and wipe the kitchen counters."}`,
			want: "Wipe counters",
		},
		{
			name: "fenced json",
			text: "```json\n{\"title\":\"Mop floor\",\"description\":\"Mop the hallway floor.\"}\n```",
			want: "Mop floor",
		},
		{
			name:    "not json",
			text:    "Sure! Here is a chore: mop the floor.",
			wantMsg: msgUnparseable,
		},
		{
			name:    "missing description",
			text:    `{"title":"Mop floor"}`,
			wantMsg: msgUnexpected,
		},
		{
			name:    "wrong field type",
			text:    `{"title":"Mop floor","description":3}`,
			wantMsg: msgUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseDraft(tt.text)

			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantMsg, err.Error())
				assert.True(t, errors.Is(err, ErrUpstream))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, draft.Title)
			assert.NotEmpty(t, draft.Description)
		})
	}
}
