// Package pipecache persists Vulkan pipeline cache blobs between runs and
// refuses blobs written by a different driver or device.
package pipecache

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
)

// HeaderVersionOne is VK_PIPELINE_CACHE_HEADER_VERSION_ONE.
const HeaderVersionOne uint32 = 1

// HeaderSize is the size of a version one header: four uint32s followed by
// the cache UUID.
const HeaderSize = 4*4 + len(uuid.UUID{})

var (
	// ErrMismatch marks a header that was written by another device, driver
	// or header version.
	ErrMismatch = errors.New("pipeline cache mismatch")
	// ErrCorrupt marks data too short or malformed to carry a header.
	ErrCorrupt = errors.New("pipeline cache corrupt")
)

// Identity is what a cache blob must have been written by to be reused.
type Identity struct {
	VendorID  uint32
	DeviceID  uint32
	CacheUUID uuid.UUID
}

type Header struct {
	Length    uint32
	Version   uint32
	VendorID  uint32
	DeviceID  uint32
	CacheUUID uuid.UUID
}

// ParseHeader reads the header at the start of a cache blob. All fields are
// little-endian.
func ParseHeader(data []byte) (Header, error) {
	var header Header
	if len(data) < HeaderSize {
		return header, errors.Mark(errors.Newf("pipeline cache is %d bytes, header needs %d", len(data), HeaderSize), ErrCorrupt)
	}

	err := binary.Read(bytes.NewReader(data), common.ByteOrder, &header)
	if err != nil {
		return header, errors.Mark(errors.Wrap(err, "read pipeline cache header"), ErrCorrupt)
	}

	if header.Length < uint32(HeaderSize) || int(header.Length) > len(data) {
		return header, errors.Mark(errors.Newf("bad header length %d", header.Length), ErrCorrupt)
	}

	return header, nil
}

// Validate reports every field that disagrees with id.
func (h Header) Validate(id Identity) error {
	var err error

	if h.Version != HeaderVersionOne {
		err = errors.CombineErrors(err, errors.Newf("unsupported header version %d", h.Version))
	}
	if h.VendorID != id.VendorID {
		err = errors.CombineErrors(err, errors.Newf("vendor id 0x%x, driver expects 0x%x", h.VendorID, id.VendorID))
	}
	if h.DeviceID != id.DeviceID {
		err = errors.CombineErrors(err, errors.Newf("device id 0x%x, driver expects 0x%x", h.DeviceID, id.DeviceID))
	}
	if h.CacheUUID != id.CacheUUID {
		err = errors.CombineErrors(err, errors.Newf("uuid %s, driver expects %s", h.CacheUUID, id.CacheUUID))
	}

	if err != nil {
		return errors.Mark(err, ErrMismatch)
	}
	return nil
}

// Load returns the cache blob stored at path when it was written for id. A
// missing file is a miss. A file that fails validation is deleted so the next
// Save repopulates it, and is also reported as a miss.
func Load(path string, id Identity, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("pipeline cache miss", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read pipeline cache %s", path)
	}

	header, err := ParseHeader(data)
	if err == nil {
		err = header.Validate(id)
	}
	if err != nil {
		logger.Warn("discarding pipeline cache", "path", path, "reason", err)
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Debug("remove stale pipeline cache", "path", path, "err", rmErr)
		}
		return nil, nil
	}

	logger.Info("pipeline cache hit", "path", path, "bytes", len(data))
	return data, nil
}

// Save writes data to path through a temporary file in the same directory,
// so a crash never leaves a truncated cache behind.
func Save(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create pipeline cache directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temporary pipeline cache")
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "write pipeline cache %s", tmpName)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "replace pipeline cache %s", path)
	}
	return nil
}
