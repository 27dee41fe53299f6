package vkdriver

import (
	"bytes"
	"encoding/binary"
	"log"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// loadPipelineCache creates the driver's pipeline cache, seeding it from
// the cache file when the file's header still matches this device. A
// stale or corrupt file is removed and the cache starts empty.
func (d *Driver) loadPipelineCache(opts Options) error {
	var data []byte
	if opts.PipelineCachePath != "" {
		var err error
		data, err = os.ReadFile(opts.PipelineCachePath)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "read pipeline cache %s", opts.PipelineCachePath)
		}
	}

	if data != nil && !d.validateCacheHeader(data) {
		log.Printf("vkdriver: pipeline cache %s is stale, rebuilding", opts.PipelineCachePath)
		_ = os.Remove(opts.PipelineCachePath)
		data = nil
	}

	var err error
	d.pipelineCache, _, err = d.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: data,
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline cache")
	}
	return nil
}

// validateCacheHeader checks the Vulkan pipeline cache header: length,
// header version, vendor and device IDs, and the cache UUID, all
// little-endian.
func (d *Driver) validateCacheHeader(data []byte) bool {
	reader := bytes.NewReader(data)

	var headerLength uint32
	var headerVersion common.PipelineCacheHeaderVersion
	var vendorID, deviceID uint32
	var cacheUUID uuid.UUID

	for _, field := range []any{&headerLength, &headerVersion, &vendorID, &deviceID, &cacheUUID} {
		if err := binary.Read(reader, common.ByteOrder, field); err != nil {
			return false
		}
	}

	return headerLength > 0 &&
		headerVersion == common.PipelineCacheHeaderVersion1 &&
		vendorID == d.vendorID &&
		deviceID == d.deviceID &&
		cacheUUID == d.pipelineCacheUUID
}

func (d *Driver) savePipelineCache() {
	if d.pipelineCachePath == "" {
		return
	}

	data, _, err := d.deviceDriver.GetPipelineCacheData(d.pipelineCache)
	if err != nil {
		log.Printf("vkdriver: reading pipeline cache data: %v", err)
		return
	}
	if err := os.WriteFile(d.pipelineCachePath, data, 0o644); err != nil {
		log.Printf("vkdriver: writing pipeline cache %s: %v", d.pipelineCachePath, err)
	}
}
