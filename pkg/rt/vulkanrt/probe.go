//go:build vulkanrt

// Package vulkanrt probes the system for Vulkan ray tracing capability.
// It creates a throwaway Vulkan instance, walks the physical devices, and
// reports the first one advertising the ray tracing pipeline extensions.
// Detection only: acceleration structure builds and pipeline creation are
// the job of a concrete backend.
//
// Build with: go build -tags=vulkanrt
package vulkanrt

import (
	"fmt"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// Info describes the device found by a successful probe.
type Info struct {
	DeviceName string
}

// Extensions a device must advertise for hardware ray tracing.
var requiredExtensions = []string{
	"VK_KHR_acceleration_structure",
	"VK_KHR_ray_tracing_pipeline",
}

// Detect reports the first physical device carrying the ray tracing
// extensions. Returns an error when Vulkan is unavailable or no device
// qualifies.
func Detect() (Info, error) {
	if err := glfw.Init(); err != nil {
		return Info{}, fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	if !glfw.VulkanSupported() {
		return Info{}, fmt.Errorf("vulkan loader not present")
	}

	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return Info{}, fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return Info{}, fmt.Errorf("vulkan init: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 2, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   "prism probe\x00",
		PEngineName:        "prism\x00",
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return Info{}, fmt.Errorf("CreateInstance failed: %d", res)
	}
	defer vk.DestroyInstance(instance, nil)
	vk.InitInstance(instance)

	var deviceCount uint32
	if res := vk.EnumeratePhysicalDevices(instance, &deviceCount, nil); res != vk.Success {
		return Info{}, fmt.Errorf("EnumeratePhysicalDevices failed: %d", res)
	}
	if deviceCount == 0 {
		return Info{}, fmt.Errorf("no vulkan devices found")
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if res := vk.EnumeratePhysicalDevices(instance, &deviceCount, devices); res != vk.Success {
		return Info{}, fmt.Errorf("EnumeratePhysicalDevices failed: %d", res)
	}

	for _, device := range devices {
		if deviceHasExtensions(device, requiredExtensions) {
			var props vk.PhysicalDeviceProperties
			vk.GetPhysicalDeviceProperties(device, &props)
			props.Deref()
			name := strings.TrimRight(string(props.DeviceName[:]), "\x00")
			return Info{DeviceName: name}, nil
		}
	}
	return Info{}, fmt.Errorf("no device advertises %s", strings.Join(requiredExtensions, ", "))
}

func deviceHasExtensions(device vk.PhysicalDevice, names []string) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return false
	}
	if count == 0 {
		return false
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, available); res != vk.Success {
		return false
	}

	have := make(map[string]bool, count)
	for i := range available {
		available[i].Deref()
		have[strings.TrimRight(string(available[i].ExtensionName[:]), "\x00")] = true
	}
	for _, name := range names {
		if !have[name] {
			return false
		}
	}
	return true
}
