package detections

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sys/cpu"
)

// InitRuntime loads the ONNX Runtime shared library once per process.
// An empty libPath leaves the library's platform default in place.
func InitRuntime(libPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func DestroyRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// CPUFeatures reports the vector extensions ONNX Runtime can take advantage of
// on this host.
func CPUFeatures() map[string]bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return map[string]bool{
			"avx512f": cpu.X86.HasAVX512F,
			"avx2":    cpu.X86.HasAVX2,
			"fma":     cpu.X86.HasFMA,
			"sse41":   cpu.X86.HasSSE41,
		}
	case "arm64":
		return map[string]bool{
			"asimd":   cpu.ARM64.HasASIMD,
			"asimddp": cpu.ARM64.HasASIMDDP,
			"sve":     cpu.ARM64.HasSVE,
		}
	default:
		return map[string]bool{}
	}
}

// sessionThreads splits the available cores across pooled sessions.
func sessionThreads(poolSize int) int {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return max(1, runtime.NumCPU()/poolSize)
}
