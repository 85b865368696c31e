package types

import "time"

// GpuDescriptor describes one graphics adapter found on the host.
type GpuDescriptor struct {
	// Adapter name as reported by the vendor tool.
	// example: NVIDIA GeForce RTX 4090
	Name string `json:"name" example:"NVIDIA GeForce RTX 4090"`
	// Dedicated memory in GB; null when the vendor tool does not report it.
	// example: 24
	VRAMGB *float64 `json:"vram_gb" example:"24"`
	// Vendor label (NVIDIA, AMD, Intel).
	// example: NVIDIA
	Vendor string `json:"vendor" example:"NVIDIA"`
}

// HasVRAM reports whether the descriptor carries a known VRAM amount.
func (g GpuDescriptor) HasVRAM() bool { return g.VRAMGB != nil }

// HardwareProfile is a snapshot of host capabilities taken by the prober.
type HardwareProfile struct {
	// Total system memory in GB.
	// example: 31.3
	TotalMemoryGB float64 `json:"total_memory_gb" example:"31.3"`
	// Logical CPU count.
	// example: 16
	CPUCount int `json:"cpu_count" example:"16"`
	// CPU brand string.
	// example: AMD Ryzen 9 7950X 16-Core Processor
	CPUBrand string `json:"cpu_brand" example:"AMD Ryzen 9 7950X 16-Core Processor"`
	// Graphics adapters, possibly inferred from the CPU brand.
	GPUs []GpuDescriptor `json:"gpu_info"`
	// True when a neural accelerator was detected.
	// example: false
	NPUDetected bool `json:"npu_detected" example:"false"`
	// Operating system description.
	// example: Ubuntu 24.04
	OSInfo string `json:"os_info" example:"Ubuntu 24.04"`
}

// MaxVRAMGB returns the largest known VRAM over all GPUs and whether any GPU
// reported VRAM at all.
func (p HardwareProfile) MaxVRAMGB() (float64, bool) {
	var max float64
	found := false
	for _, g := range p.GPUs {
		if g.VRAMGB == nil {
			continue
		}
		if !found || *g.VRAMGB > max {
			max = *g.VRAMGB
		}
		found = true
	}
	return max, found
}

// ConversationRecord is one persisted request/response exchange.
type ConversationRecord struct {
	// Unique record id (uuid v4 when generated by the server).
	// example: 3f0c2a9e-5c1d-4a43-9d0e-7d1b7d0f4a11
	ID string `json:"id" example:"3f0c2a9e-5c1d-4a43-9d0e-7d1b7d0f4a11"`
	// User message.
	// example: How do I reverse a slice in Go?
	Message string `json:"message" example:"How do I reverse a slice in Go?"`
	// Generated response.
	Response string `json:"response"`
	// Time the exchange completed.
	Timestamp time.Time `json:"timestamp"`
	// Request category; null for records saved without one.
	// example: code
	MessageType *string `json:"message_type" example:"code"`
}

// StringPtr returns a pointer to s; handy for optional JSON fields.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }
