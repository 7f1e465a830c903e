// Package dataset describes the canonical per-category layout and the small
// naming rules every job shares.
//
// A category directory holds images/, csv/, json/, sets/ and labelmap.json.
// Layout resolves those paths; the helpers here read and write split lists,
// discover and probe images, parse raw per-image annotation JSON, and derive
// the singular label of a category ("oranges" -> "orange") with the simple
// trailing-s rule the exported files have always used.
package dataset
