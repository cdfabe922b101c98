package task

import "fmt"

// bundledTaskNames lists every task this process ships with; AssertRegistered
// checks each has actually registered, the same completeness-check shape as
// internal/format's AssertComplete, and for the same reason: it must be called
// once from the process entry point after this package is imported, not from a
// package init(), so it never depends on per-file init() ordering between
// thumbnail.go/whisper.go/visionocr.go/vllm.go.
var bundledTaskNames = []string{"thumbnail", "whisper", "vision_ocr", "vllm_caption"}

func AssertRegistered() {
	for _, name := range bundledTaskNames {
		if _, ok := registry[name]; !ok {
			panic(fmt.Sprintf("task: bundled task %q never registered itself", name))
		}
	}
}
