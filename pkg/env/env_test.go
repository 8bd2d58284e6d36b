package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("ECOMMERCE_ENV_TEST", "  value ")
	assert.Equal(t, "value", Get("ECOMMERCE_ENV_TEST", "fallback"))
	assert.Equal(t, "fallback", Get("ECOMMERCE_ENV_TEST_MISSING", "fallback"))
}

func TestFirst(t *testing.T) {
	t.Setenv("ECOMMERCE_ENV_A", "")
	t.Setenv("ECOMMERCE_ENV_B", "b")
	assert.Equal(t, "b", First("x", "ECOMMERCE_ENV_A", "ECOMMERCE_ENV_B"))
	assert.Equal(t, "x", First("x", "ECOMMERCE_ENV_A"))
}
