package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"genus", "core", "restricted", "primary", "random", "diversity-value"} {
		got, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, Strategy(name), got)
	}

	for _, name := range []string{"", "Primary", "diversity_value", "bogus"} {
		_, err := ParseStrategy(name)
		assert.Error(t, err, "name %q", name)
	}
}
