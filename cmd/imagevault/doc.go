/*
Imagevault manages a local image library from the command line.

Images are validated, compressed, thumbnailed and stored in an embedded
SQLite database together with their category, tags and an optional external
record id.

Usage:

	imagevault <command> [flags] [args]

Commands:

	ingest       Add image files to the library
	list         List images, optionally filtered and sorted
	search       Search names, categories and tags
	show         Show one image's metadata
	update       Rename, reclassify or relink one image
	stats        Show library statistics
	delete       Delete images by id or by filter
	download     Write images' compressed payloads to disk
	categories   List categories
	add-category Create a category
	tags         List tags
	add-tag      Create a tag with a random color
	export       Write the whole library as a JSON document
	import       Replace the library with a JSON document
	clear        Remove every image, category and tag
	version      Print version information

Destructive commands (delete, import, clear) ask for confirmation on a
terminal and refuse to run non-interactively unless -yes is given.

Configuration is read from IMAGEVAULT_* environment variables; see package
startup for the full list.
*/
package main
