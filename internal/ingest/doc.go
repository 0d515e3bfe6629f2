// Package ingest runs a batch of user supplied images through validation
// and transcoding.
//
// The batch is validated once, up front; a rejection aborts it before any
// file is decoded. Accepted batches are transcoded file by file (or by a
// bounded pool of workers), and one file's failure never stops the others.
// Progress is reported after every finished file, in order, with a
// percentage that never decreases.
//
// The pipeline knows nothing about storage. Each Processed item is shaped
// for the caller to decorate with category, tags and a record id and hand to
// database.SaveMultiple.
package ingest
