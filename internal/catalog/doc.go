// Package catalog is the browsing facade over the image store.
//
// A View narrows the library with a Filter, where every active criterion
// must hold, then orders it with a stable Sort. Selections and the batch
// operations built on them (bulk delete, bulk download) only ever touch the
// ids currently in view.
package catalog
