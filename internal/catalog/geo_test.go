package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivahvendors/vendor-crawler/internal/model"
)

func TestEncodePoint_RoundTrip(t *testing.T) {
	data, err := EncodePoint(model.Float64Ptr(13.0827), model.Float64Ptr(80.2707))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	lat, lng, err := DecodePoint(data)
	require.NoError(t, err)
	assert.InDelta(t, 13.0827, *lat, 1e-9)
	assert.InDelta(t, 80.2707, *lng, 1e-9)
}

func TestEncodePoint_Missing(t *testing.T) {
	data, err := EncodePoint(model.Float64Ptr(13.0), nil)
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestEncodePoint_OutOfRange(t *testing.T) {
	_, err := EncodePoint(model.Float64Ptr(95), model.Float64Ptr(10))
	assert.Error(t, err)
}
