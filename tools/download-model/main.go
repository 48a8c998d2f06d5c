// Tool that downloads the nomic-embed-text ONNX model into the
// directory the server loads from at startup.
//
// Usage: go run ./tools/download-model [dest]
//
// Without an argument the model lands in ~/.embedd/models, matching
// the MODEL_DIR default of the serve command. Pass
// infrastructure/provider/models instead to stage the model for a
// static build with the embed_model tag.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
)

const modelRepo = "nomic-ai/nomic-embed-text-v1.5"

func main() {
	dest, err := destDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve destination: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloading %s to %s...\n", modelRepo, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	modelPath, err := hugot.DownloadModel(modelRepo, dest, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model downloaded to %s\n", modelPath)
}

func destDir() (string, error) {
	if len(os.Args) > 1 {
		return os.Args[1], nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".embedd", "models"), nil
}
