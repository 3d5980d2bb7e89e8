package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	t.Parallel()

	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		assert.Equal(t, want, Number(in), "Number(%d)", in)
	}
}

func TestBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 B", Bytes(0))
	assert.Equal(t, "1023 B", Bytes(1023))
	assert.Equal(t, "1.0 KiB", Bytes(1024))
	assert.Equal(t, "1.5 KiB", Bytes(1536))
	assert.Equal(t, "1.0 MiB", Bytes(1<<20))
	assert.Equal(t, "3.0 GiB", Bytes(3<<30))
}

func TestRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-", Ratio(10, 0))
	assert.Equal(t, "50.0%", Ratio(50, 100))
}

func TestDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0s", Duration(500*time.Millisecond))
	assert.Equal(t, "5.2s", Duration(5200*time.Millisecond))
	assert.Equal(t, "3m5.0s", Duration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h15m", Duration(2*time.Hour+15*time.Minute))
}

func TestRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "123.45", Rate(123.45))
	assert.Equal(t, "12.34K", Rate(12340))
	assert.Equal(t, "12.34M", Rate(12340000))
}
