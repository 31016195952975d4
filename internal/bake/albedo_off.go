//go:build !lutalbedo

package bake

// Ground albedo is baked only with -tags lutalbedo.
const (
	groundAlbedoEnabled = false
	groundAlbedo        = 0.0
)
