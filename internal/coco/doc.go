// Package coco exports canonical categories as COCO instance documents.
//
// Collect turns one category split into images and annotations numbered by
// a Builder. Merge concatenates several collected categories into a single
// multi-class document, renumbering ids and remapping annotation image
// references. Converter drives both for every configured category and split
// and writes <category>_instances_<split>.json plus, when enabled, the
// combined_instances_<split>.json file.
package coco
