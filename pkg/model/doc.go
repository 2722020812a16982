// Package model defines the metadata and document types the evaluation
// engine operates on: loosely-typed documents, per-doctype field descriptors
// with their three dependency expression slots (depends_on,
// mandatory_depends_on, read_only_depends_on), and the role permission rules
// stratified by permlevel. The concrete definitions live in internal/model
// and are re-exported here so loaders and the engine share one vocabulary
// without exposing internal packages.
package model
