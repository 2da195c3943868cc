package lgap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	allFF := make([]byte, FrameSize)
	for i := range allFF {
		allFF[i] = 0xff
	}
	testCases := []struct {
		name   string
		in     []byte
		expect byte
	}{
		{name: "empty", in: nil, expect: 0x55},
		{name: "checksum slot only", in: []byte{0xab}, expect: 0x55},
		{name: "status request zone 3", in: []byte{0x10, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, expect: 0x46},
		{name: "sum overflows", in: allFF, expect: 0xa4},
		{name: "last byte ignored", in: []byte{0x10, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x99}, expect: 0x46},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Checksum(tc.in))
		})
	}
}

func TestValidate(t *testing.T) {
	good := NewFrame(7, 3, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	require.NoError(t, Validate(good[:]))

	badStart := good
	badStart[0] = 0x11
	badStart.Seal()

	badSum := good
	badSum[15]++

	testCases := []struct {
		name string
		in   []byte
		err  error
	}{
		{name: "empty", in: nil, err: ErrFrameLength},
		{name: "short", in: good[:15], err: ErrFrameLength},
		{name: "long", in: append(good.Bytes(), 0), err: ErrFrameLength},
		{name: "start byte", in: badStart[:], err: ErrFraming},
		{name: "checksum", in: badSum[:], err: ErrChecksum},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.err, Validate(tc.in))
			_, err := ParseFrame(tc.in)
			require.Equal(t, tc.err, err)
		})
	}
}

func TestChecksumDetectsSingleBitFlips(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n < 64; n++ {
		var f Frame
		rnd.Read(f[:FrameSize-1])
		f[0] = StartByte
		f.Seal()
		require.True(t, f.Valid(), "frame %s", f)

		for i := 0; i < FrameSize; i++ {
			for bit := uint(0); bit < 8; bit++ {
				flipped := f
				flipped[i] ^= 1 << bit
				require.Error(t, Validate(flipped[:]), "byte %d bit %d of %s", i, bit, f)
			}
		}
	}
}

func TestFrameFields(t *testing.T) {
	payload := []byte{0xa1, 0xa3, 0xa5, 0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xab, 0xac, 0xad, 0xae}
	f := NewFrame(0x42, 5, payload)
	require.True(t, f.Valid())
	require.Equal(t, StartByte, f[0])
	require.Equal(t, byte(0x42), f.RequestID())
	require.Equal(t, byte(5), f.Zone())
	require.Equal(t, byte(0xa1), f[1])
	require.Equal(t, byte(0xa3), f[3])
	require.Equal(t, byte(0xae), f[14])
	require.Equal(t, payload, f.Payload())
	require.Equal(t, Checksum(f[:]), f.Checksum())

	f.SetPayload([]byte{0xff})
	require.False(t, f.Valid())
	f.Seal()
	require.True(t, f.Valid())
	require.Equal(t, byte(0xff), f[1])
	require.Equal(t, byte(0xa3), f[3])

	parsed, err := ParseFrame(f.Bytes())
	require.NoError(t, err)
	require.Equal(t, f, parsed)
	require.Equal(t, "10ff42a305", f.String()[:10])
}
