package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("TODOROOM_TEST_STRING", "hello")
	t.Setenv("TODOROOM_TEST_INT", " 42 ")
	t.Setenv("TODOROOM_TEST_BAD_INT", "forty")
	t.Setenv("TODOROOM_TEST_BOOL", "true")
	t.Setenv("TODOROOM_TEST_DURATION", "1500ms")

	assert.Equal(t, "hello", GetString("TODOROOM_TEST_STRING", "x"))
	assert.Equal(t, "x", GetString("TODOROOM_TEST_MISSING", "x"))
	assert.Equal(t, 42, GetInt("TODOROOM_TEST_INT", 1))
	assert.Equal(t, 1, GetInt("TODOROOM_TEST_BAD_INT", 1))
	assert.True(t, GetBool("TODOROOM_TEST_BOOL", false))
	assert.False(t, GetBool("TODOROOM_TEST_MISSING", false))
	assert.Equal(t, 1500*time.Millisecond, GetDuration("TODOROOM_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetDuration("TODOROOM_TEST_MISSING", time.Second))
}
