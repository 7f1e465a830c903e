// Package config loads, normalizes, and validates cocoprep configuration data.
//
// It supplies repository defaults (the two Plant Village categories, the
// train/val/test splits), expands user paths (including tilde shortcuts),
// reads TOML files, and honours environment fallbacks such as COCOPREP_ROOT.
// The Config type centralizes every knob the three dataset jobs and the CLI
// need so the dataset root, raw sources, and export directory are discovered
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
