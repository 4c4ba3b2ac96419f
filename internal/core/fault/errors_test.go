package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("Unwrap: sentinel matches through errors.Is", func(t *testing.T) {
		err := New(CodeSystemNotFound, "no renderer registered", ErrSystemNotFound).
			WithContext("key", "render.manager")
		require.True(t, errors.Is(err, ErrSystemNotFound))
		require.Equal(t, "render.manager", err.Context["key"])
	})

	t.Run("Error: message includes cause", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		err := New(CodeAdapterRejected, "save rejected", cause)
		require.Contains(t, err.Error(), "save rejected")
		require.Contains(t, err.Error(), "disk full")
	})

	t.Run("IsRecoverable: wiring faults fail fast, resource faults do not", func(t *testing.T) {
		require.False(t, New(CodeCircularDependency, "", ErrCircularDependency).IsRecoverable())
		require.False(t, New(CodeInvalidConfig, "", ErrInvalidConfig).IsRecoverable())
		require.True(t, New(CodeSlotNotFound, "", ErrSlotNotFound).IsRecoverable())
		require.True(t, New(CodeAssetLoadFailed, "", ErrAssetLoadFailed).IsRecoverable())
	})
}
