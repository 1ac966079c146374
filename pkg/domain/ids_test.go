package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "portalgate/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	valid := uuid.New()

	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"lowercase uuid", valid.String(), true},
		{"uppercase uuid", strings.ToUpper(valid.String()), true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"nil uuid", uuid.Nil.String(), false},
		{"garbage", "not-a-uuid", false},
		{"sql fragment", "'; DROP TABLE session_metadata;--", false},
		{"path traversal", "../../etc/passwd", false},
		{"embedded nul", "550e8400\x00-e29b-41d4-a716-446655440000", false},
		{"oversized", strings.Repeat("f", 500), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, subjectErr := ParseSubjectID(tt.input)
			handle, handleErr := ParseHandleID(tt.input)
			if tt.ok {
				require.NoError(t, subjectErr)
				require.NoError(t, handleErr)
				assert.Equal(t, strings.ToLower(tt.input), subject.String())
				assert.Equal(t, subject.String(), handle.String())
				return
			}
			assert.True(t, dErrors.HasCode(subjectErr, dErrors.CodeInvalidInput), "subject: %v", subjectErr)
			assert.True(t, dErrors.HasCode(handleErr, dErrors.CodeInvalidInput), "handle: %v", handleErr)
		})
	}
}

func TestHandleIDs(t *testing.T) {
	a, b := NewHandleID(), NewHandleID()
	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)
	assert.True(t, HandleID{}.IsNil())
}

// IDs travel as plain strings in JSON bodies and stored session records.
func TestIDsAsJSONText(t *testing.T) {
	type record struct {
		Subject SubjectID `json:"subject"`
		Handle  HandleID  `json:"handle"`
	}
	in := record{Subject: SubjectID(uuid.New()), Handle: NewHandleID()}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"subject":"`+in.Subject.String()+`"`)

	var out record
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"handle":"nope"}`), &out))
}
