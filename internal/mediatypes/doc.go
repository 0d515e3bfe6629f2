// Package mediatypes provides shared type definitions for image handling
// across the image vault.
//
// This package is a dependency-free foundation that can be imported by other
// packages without creating import cycles. It holds the upload allow-list, the
// extension/MIME maps used when files come from disk, and the sort keys shared
// by the catalog and the CLI.
//
// # Allow-list
//
//	if !mediatypes.IsAllowedMimeType(file.ContentType()) {
//	    // reject before any decoding happens
//	}
//
// # Extension Detection
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	mimeType := mediatypes.GetMimeType(ext) // e.g., "image/png"
//
// # Sorting
//
//	field, ok := mediatypes.ParseSortField("fileSize")
//	order := mediatypes.SortDesc
package mediatypes
