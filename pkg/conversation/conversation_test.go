package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_Append(t *testing.T) {
	t.Run("should keep turns in insertion order", func(t *testing.T) {
		tr := NewTranscript()

		require.NoError(t, tr.Append(RoleUser, "How can I save?"))
		require.NoError(t, tr.Append(RoleAssistant, "Cook at home."))
		require.NoError(t, tr.Append(RoleUser, "Thanks"))

		assert.Equal(t, []Turn{
			{Role: RoleUser, Content: "How can I save?"},
			{Role: RoleAssistant, Content: "Cook at home."},
			{Role: RoleUser, Content: "Thanks"},
		}, tr.Turns())
	})

	t.Run("should reject unknown role", func(t *testing.T) {
		tr := NewTranscript()

		err := tr.Append(Role("system"), "hidden")

		assert.Error(t, err)
		assert.Equal(t, 0, tr.Len())
	})
}

func TestTranscript_TurnsIsACopy(t *testing.T) {
	tr := NewTranscript()
	require.NoError(t, tr.Append(RoleUser, "hi"))

	turns := tr.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "hi", tr.Turns()[0].Content)
}

func TestTranscript_Clear(t *testing.T) {
	tr := NewTranscript()
	require.NoError(t, tr.Append(RoleUser, "hi"))

	tr.Clear()

	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Turns())
}

func TestRole_Label(t *testing.T) {
	assert.Equal(t, "User", RoleUser.Label())
	assert.Equal(t, "Assistant", RoleAssistant.Label())
}
