//go:build lutalbedo

package bake

const (
	groundAlbedoEnabled = true
	groundAlbedo        = 0.1
)
