// Package splitfix rewrites per-category split lists so every entry names an
// image that exists under the canonical stem.
//
// The shared train/val/test lists name images by the filename they had before
// the labelling tool renamed them. BuildMapping recovers that name from each
// annotation JSON and registers several spellings of it. Resolve then tries an
// ordered list of matcher strategies per line; the first hit wins.
package splitfix
