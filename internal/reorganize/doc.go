// Package reorganize copies raw labelled images into the canonical category
// layout.
//
// For each configured source folder the Reorganizer copies every image into
// images/, copies the matching annotation JSON into json/, derives a canonical
// box file in csv/, and writes labelmap.json plus sets/all.txt. SeedSplits
// routes the shared train/val/test lists to categories by filename pattern so
// categories without filename metadata still receive split files.
//
// Reruns over the same source produce identical files. Malformed annotations
// are logged and produce header-only box files; they never abort a run.
package reorganize
