// Standalone tool that downloads the all-MiniLM-L6-v2 embedding model in
// ONNX format into the memdocs model cache, where the built-in embedding
// provider finds it.
//
// Usage: download-model [dest]
package main

import (
	"fmt"
	"os"

	"github.com/knights-analytics/hugot"

	"github.com/memdocs-io/memdocs/internal/config"
)

func main() {
	dest := config.DefaultModelCacheDir()
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloading %s to %s...\n", config.DefaultEmbeddingModel, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	modelPath, err := hugot.DownloadModel(config.DefaultEmbeddingModel, dest, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model ready at %s\n", modelPath)
}
