package setup

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw"
)

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

const (
	nvidiaSMI      = "nvidia-smi"
	nvidiaSMIQuery = "--query-gpu=name,memory.total"
	nvidiaSMIFmt   = "--format=csv,noheader,nounits"
	notAvailable   = "[N/A]"
)

// GPU is one detected graphics device.
type GPU struct {
	Name        string
	MemoryBytes uint64
	// CUDA is set for devices reported by the NVIDIA driver.
	CUDA bool
}

// GPUDetector lists the graphics devices of the machine.
type GPUDetector interface {
	Detect(ctx context.Context) ([]GPU, error)
}

// SystemGPUDetector queries nvidia-smi for CUDA devices and falls back to PCI
// enumeration for everything else.
type SystemGPUDetector struct{}

// NewSystemGPUDetector creates a SystemGPUDetector.
func NewSystemGPUDetector() *SystemGPUDetector {
	return &SystemGPUDetector{}
}

// Detect returns the CUDA devices when nvidia-smi reports any, otherwise the
// graphics cards found on the PCI bus.
func (d *SystemGPUDetector) Detect(ctx context.Context) ([]GPU, error) {
	cuda, smiErr := queryNvidiaSMI(ctx)
	if smiErr == nil && len(cuda) > 0 {
		return cuda, nil
	}

	cards, err := pciGraphicsCards()
	if err != nil {
		if smiErr != nil {
			return nil, fmt.Errorf("nvidia-smi: %w; pci: %w", smiErr, err)
		}

		return nil, err
	}

	return cards, nil
}

func queryNvidiaSMI(ctx context.Context) ([]GPU, error) {
	path, err := exec.LookPath(nvidiaSMI)
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", nvidiaSMI, err)
	}

	// #nosec G204 -- fixed arguments
	cmd := exec.CommandContext(ctx, path, nvidiaSMIQuery, nvidiaSMIFmt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		return nil, fmt.Errorf("%s failed: %w - output: %s", nvidiaSMI, runErr, stderr.String())
	}

	return ParseNvidiaSMI(stdout.String()), nil
}

// ParseNvidiaSMI parses "name, memory.total" CSV lines with memory in MiB.
// Devices without a memory figure are reported with zero memory.
func ParseNvidiaSMI(output string) []GPU {
	var gpus []GPU

	for line := range strings.SplitSeq(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		separator := strings.LastIndex(line, ",")
		if separator < 0 {
			continue
		}

		name := strings.TrimSpace(line[:separator])
		totalStr := strings.TrimSpace(line[separator+1:])

		var memoryBytes uint64

		if totalStr != notAvailable {
			totalMB, parseErr := strconv.ParseFloat(totalStr, 64)
			if parseErr == nil && totalMB > 0 {
				memoryBytes = uint64(totalMB * bytesPerMB)
			}
		}

		gpus = append(gpus, GPU{Name: name, MemoryBytes: memoryBytes, CUDA: true})
	}

	return gpus
}

func pciGraphicsCards() ([]GPU, error) {
	info, err := ghw.GPU()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate graphics cards: %w", err)
	}

	gpus := make([]GPU, 0, len(info.GraphicsCards))

	for _, card := range info.GraphicsCards {
		if card == nil {
			continue
		}

		var memoryBytes uint64
		if card.Node != nil && card.Node.Memory != nil && card.Node.Memory.TotalUsableBytes > 0 {
			memoryBytes = uint64(card.Node.Memory.TotalUsableBytes)
		}

		gpus = append(gpus, GPU{Name: card.String(), MemoryBytes: memoryBytes})
	}

	return gpus, nil
}
