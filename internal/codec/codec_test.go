package codec

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nouridin/supershop/internal/domain"
)

func TestEncodeDecodeStack(t *testing.T) {
	t.Run("Full payload survives a round trip", func(t *testing.T) {
		stack := domain.ItemStack{
			Payload: domain.ItemPayload{
				Kind:        "DIAMOND_SWORD",
				DisplayName: "Excalibur",
				Lore:        []string{"Forged in fire", "Unbreakable"},
				Meta:        []byte{0x01, 0x02, 0xff},
				StackLimit:  1,
			},
			Count: 1,
		}

		encoded, err := EncodeStack(stack)
		require.NoError(t, err)
		assert.NotEmpty(t, encoded)

		decoded, err := DecodeStack(encoded)
		require.NoError(t, err)
		assert.Equal(t, stack, decoded)
	})

	t.Run("Minimal payload survives a round trip", func(t *testing.T) {
		stack := domain.ItemStack{
			Payload: domain.ItemPayload{Kind: "STONE", StackLimit: 64},
			Count:   32,
		}

		encoded, err := EncodeStack(stack)
		require.NoError(t, err)

		decoded, err := DecodeStack(encoded)
		require.NoError(t, err)
		assert.Equal(t, stack, decoded)
	})

	t.Run("Empty blob is an error", func(t *testing.T) {
		_, err := DecodeStack("")
		assert.Error(t, err)
	})

	t.Run("Garbage input is an error", func(t *testing.T) {
		_, err := DecodeStack("not base64 at all!!!")
		assert.Error(t, err)
	})

	t.Run("Truncated blob is an error", func(t *testing.T) {
		stack := domain.ItemStack{Payload: domain.NewItemPayload("DIRT"), Count: 4}
		encoded, err := EncodeStack(stack)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)

		truncated := base64.StdEncoding.EncodeToString(raw[:len(raw)/2])
		_, err = DecodeStack(truncated)
		assert.Error(t, err)
	})

	t.Run("Unknown version byte is rejected", func(t *testing.T) {
		stack := domain.ItemStack{Payload: domain.NewItemPayload("DIRT"), Count: 4}
		encoded, err := EncodeStack(stack)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		raw[0] = 99

		_, err = DecodeStack(base64.StdEncoding.EncodeToString(raw))
		assert.ErrorContains(t, err, "version")
	})
}

func TestEncodeDecodeStacks(t *testing.T) {
	t.Run("List survives a round trip", func(t *testing.T) {
		stacks := []domain.ItemStack{
			{Payload: domain.ItemPayload{Kind: "STONE", StackLimit: 64}, Count: 64},
			{Payload: domain.ItemPayload{Kind: "IRON_INGOT", DisplayName: "Pure Iron", StackLimit: 64}, Count: 3},
		}

		encoded, err := EncodeStacks(stacks)
		require.NoError(t, err)

		decoded, err := DecodeStacks(encoded)
		require.NoError(t, err)
		assert.Equal(t, stacks, decoded)
	})

	t.Run("Empty list encodes to empty string", func(t *testing.T) {
		encoded, err := EncodeStacks(nil)
		require.NoError(t, err)
		assert.Empty(t, encoded)
	})

	t.Run("Empty blob decodes to empty list", func(t *testing.T) {
		decoded, err := DecodeStacks("")
		require.NoError(t, err)
		assert.Empty(t, decoded)
	})

	t.Run("Corrupt length prefix is an error", func(t *testing.T) {
		raw := []byte{formatVersion, 0xff, 0xff, 0xff, 0xff}
		_, err := DecodeStacks(base64.StdEncoding.EncodeToString(raw))
		assert.ErrorContains(t, err, "exceeds limit")
	})
}
