package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("RC_STR", "  value ")
	t.Setenv("RC_INT", "42")
	t.Setenv("RC_BAD_INT", "forty")
	t.Setenv("RC_FLOAT", "0.25")
	t.Setenv("RC_DUR", "1500ms")

	assert.Equal(t, "value", Get("RC_STR", "x"))
	assert.Equal(t, "x", Get("RC_MISSING", "x"))
	assert.Equal(t, 42, GetInt("RC_INT", 1))
	assert.Equal(t, 1, GetInt("RC_BAD_INT", 1))
	assert.Equal(t, 0.25, GetFloat("RC_FLOAT", 1))
	assert.Equal(t, 1500*time.Millisecond, GetDuration("RC_DUR", time.Second))
	assert.Equal(t, time.Second, GetDuration("RC_MISSING", time.Second))
}

func TestParseSolverEndpoints(t *testing.T) {
	got := ParseSolverEndpoints(" qubo=http://localhost:9000 , ortools = http://solver:8000/ ,broken, =http://x,empty=")
	assert.Equal(t, map[string]string{
		"qubo":    "http://localhost:9000",
		"ortools": "http://solver:8000/",
	}, got)

	assert.Empty(t, ParseSolverEndpoints(""))
}
