// Package memory provides typed object pools shared by the storage layer.
package memory
