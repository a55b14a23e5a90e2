package getsafe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	payload := map[string]any{"name": "n1", "count": 3}

	assert.Equal(t, "n1", String(payload, "name"))
	assert.Equal(t, "", String(payload, "count"))
	assert.Equal(t, "", String(payload, "missing"))
}

func TestFloat(t *testing.T) {
	payload := map[string]any{
		"f64": 0.9,
		"f32": float32(0.5),
		"i":   3,
		"i64": int64(4),
		"s":   "0.9",
	}

	got, ok := Float(payload, "f64")
	assert.True(t, ok)
	assert.Equal(t, 0.9, got)

	got, ok = Float(payload, "f32")
	assert.True(t, ok)
	assert.InDelta(t, 0.5, got, 1e-6)

	got, ok = Float(payload, "i")
	assert.True(t, ok)
	assert.Equal(t, 3.0, got)

	got, ok = Float(payload, "i64")
	assert.True(t, ok)
	assert.Equal(t, 4.0, got)

	_, ok = Float(payload, "s")
	assert.False(t, ok)

	_, ok = Float(payload, "missing")
	assert.False(t, ok)
}

func TestMetadata(t *testing.T) {
	payload := map[string]any{
		"attrs": map[string]any{"k": "v"},
		"other": "x",
	}

	assert.Equal(t, map[string]any{"k": "v"}, Metadata(payload, "attrs"))
	assert.Nil(t, Metadata(payload, "other"))
	assert.Nil(t, Metadata(payload, "missing"))
}

func TestTime(t *testing.T) {
	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	payload := map[string]any{
		"native": stamp,
		"text":   "2025-01-02T03:04:05Z",
		"bad":    "not a time",
	}

	assert.Equal(t, stamp, Time(payload, "native"))
	assert.True(t, stamp.Equal(Time(payload, "text")))
	assert.True(t, Time(payload, "bad").IsZero())
	assert.True(t, Time(payload, "missing").IsZero())
}
