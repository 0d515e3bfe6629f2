// Package database is the image vault's embedded storage engine.
//
// It holds three collections:
//   - images: ImageRecord rows with their compressed and thumbnail payloads
//   - categories: single-valued labels, seeded with five defaults
//   - tags: multi-valued labels with a display color
//
// Every collection lives in memory, keyed by integer id, with secondary
// indices by category, tag and record id. The in-memory state is written
// through to a SQLite file (WAL mode) so it survives restarts. Each write
// runs in one SQLite transaction and is applied to memory only after the
// commit succeeds, under the same write lock, so readers never observe a
// partially applied operation.
//
// Categories and tags are referenced from images by name. Nothing cascades
// when a category or tag row changes.
package database
