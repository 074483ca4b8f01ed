package control

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := []string{
		"move 180 45",
		"g", // single-byte payload, no digits beyond length prefix
		"getMeta",
	}
	for _, payload := range cases {
		var buf bytes.Buffer
		require.NoError(t, writeFrame(&buf, []byte(payload)))
		got, err := readFrame(bufio.NewReader(&buf))
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	}
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("0move"))
	_, err := readFrame(r)
	assert.ErrorIs(t, err, ErrProtocolFraming)
}

func TestReadFrameRejectsMissingLengthDigits(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("move"))
	_, err := readFrame(r)
	assert.ErrorIs(t, err, ErrProtocolFraming)
}

func TestReadFrameStopsAtFirstNonDigit(t *testing.T) {
	// "11getMeta..." means length=11, first payload byte is 'g'.
	r := bufio.NewReader(bytes.NewBufferString("11getMeta extra bytes ignored by this frame"))
	got, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, "getMeta ext", string(got))
}

func TestReadFrameTruncatedPayloadErrors(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("20short"))
	_, err := readFrame(r)
	assert.ErrorIs(t, err, ErrProtocolFraming)
}
