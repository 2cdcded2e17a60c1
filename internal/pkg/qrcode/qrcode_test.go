package qrcode

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uri = "otpauth://totp/Acme:alice?secret=GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ&issuer=Acme&algorithm=SHA256&digits=6&period=30"

func TestGenerate(t *testing.T) {
	out, err := Generate(uri, 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate("", 256)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = Generate(uri, 32)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Generate(uri, 4096)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestDataURI(t *testing.T) {
	got, err := DataURI(uri, 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"))
}
