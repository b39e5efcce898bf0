//go:build !vulkanrt

// Package vulkanrt probes the system for Vulkan ray tracing capability.
// When the "vulkanrt" build tag is not set, this stub is compiled instead
// and Detect reports that probing is unavailable.
//
// Build with: go build -tags=vulkanrt
package vulkanrt

import "errors"

// Info describes the device found by a successful probe.
type Info struct {
	DeviceName string
}

// Detect returns an error indicating the probe is not compiled in.
func Detect() (Info, error) {
	return Info{}, errors.New("vulkan probe not available: build with -tags=vulkanrt")
}
