package pipecache

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{
	VendorID:  0x10de,
	DeviceID:  0x2484,
	CacheUUID: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
}

func blob(t *testing.T, h Header, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
	buf.Write(payload)
	return buf.Bytes()
}

func validHeader() Header {
	return Header{
		Length:    uint32(HeaderSize),
		Version:   HeaderVersionOne,
		VendorID:  testIdentity.VendorID,
		DeviceID:  testIdentity.DeviceID,
		CacheUUID: testIdentity.CacheUUID,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseHeader(t *testing.T) {
	data := blob(t, validHeader(), []byte("driver data"))
	assert.Equal(t, byte(HeaderSize), data[0], "length is written least significant byte first")

	header, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, validHeader(), header)
	assert.NoError(t, header.Validate(testIdentity))
}

func TestParseHeader_Corrupt(t *testing.T) {
	_, err := ParseHeader([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrCorrupt))

	h := validHeader()
	h.Length = 4
	_, err = ParseHeader(blob(t, h, nil))
	assert.True(t, errors.Is(err, ErrCorrupt))

	h.Length = 4096
	_, err = ParseHeader(blob(t, h, nil))
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestHeader_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Header)
	}{
		{"version", func(h *Header) { h.Version = 2 }},
		{"vendor", func(h *Header) { h.VendorID = 0x1002 }},
		{"device", func(h *Header) { h.DeviceID++ }},
		{"uuid", func(h *Header) { h.CacheUUID = uuid.Nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			tt.mutate(&h)
			err := h.Validate(testIdentity)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMismatch))
		})
	}
}

func TestLoad_Miss(t *testing.T) {
	data, err := Load(filepath.Join(t.TempDir(), "missing.bin"), testIdentity, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.bin")
	want := blob(t, validHeader(), []byte("compiled pipelines"))

	require.NoError(t, Save(path, want))

	got, err := Load(path, testIdentity, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoad_StaleFileIsRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bin")
	h := validHeader()
	h.DeviceID = 1
	require.NoError(t, os.WriteFile(path, blob(t, h, nil), 0o644))

	data, err := Load(path, testIdentity, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
