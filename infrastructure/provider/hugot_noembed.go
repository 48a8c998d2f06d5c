//go:build !embed_model

package provider

import "io/fs"

// embeddedModelFS is empty when the embed_model build tag is not set;
// resolveModelPath never reads it in that case.
var embeddedModelFS fs.FS

const hasEmbeddedModel = false
