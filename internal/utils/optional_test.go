package utils_test

import (
	"testing"

	"github.com/jrsteele09/aams-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	require.Equal(t, "x", utils.Value(utils.Ptr("x")))
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, 0, utils.Value[int](nil))
}

func TestValueOr(t *testing.T) {
	require.Equal(t, "Support", utils.ValueOr(utils.Ptr("Support"), "-"))
	require.Equal(t, "-", utils.ValueOr(utils.Ptr(""), "-"))
	require.Equal(t, "-", utils.ValueOr[string](nil, "-"))
}
