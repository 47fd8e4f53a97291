// Package common keeps enumerations shared between configuration and
// processing packages so neither has to import the other.
package common

// Kind of media block harvested from content list.
// ENUM(image, table)
type MediaKind int

// Marker returns caption marker conventionally used for the kind in standard
// documents.
func (k MediaKind) Marker() string {
	switch k {
	case MediaKindTable:
		return "表"
	default:
		return "图"
	}
}

// Model used by remote parsing service.
// ENUM(pipeline, vlm)
type ModelVersion string
