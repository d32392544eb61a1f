package rowop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpNop, "NOP"},
		{OpInsert, "INSERT"},
		{OpDelete, "DELETE"},
		{FlagInsert | FlagDelete, "[ID]"},
		{Opcode(0x04), "[]"},
		{Opcode(0x05), "[I]"},
		{Opcode(0x06), "[D]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, OpcodeString(tt.op))
		})
	}
}

func TestOpcodeClassification(t *testing.T) {
	id := FlagInsert | FlagDelete
	assert.True(t, id.IsInsert())
	assert.True(t, id.IsDelete())
	assert.False(t, id.IsNop())
	assert.True(t, OpNop.IsNop())
	assert.True(t, Opcode(0x10).IsNop())
}

func TestParseOpcode(t *testing.T) {
	for _, s := range []string{"NOP", "INSERT", "DELETE", "[ID]", "[]", "[D]"} {
		op, err := ParseOpcode(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, op.String())
	}

	op, err := ParseOpcode("op_insert")
	require.NoError(t, err)
	assert.Equal(t, OpInsert, op)

	_, err = ParseOpcode("[IX]")
	assert.Error(t, err)
	_, err = ParseOpcode("UPSERT")
	assert.Error(t, err)
}
