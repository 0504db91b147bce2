// Package dictapi is a client for the public JSON API of the Taiwan Sign
// Language online dictionary (https://twtsl.ccu.edu.tw).
//
// Four endpoints are used, each answering {"Record": [...]}:
//
//   - /api/pinSearch lists the records of a stroke-count bucket
//   - /api/querySearch returns the full entry of a record
//   - /api/sentence returns a record's example sentences
//   - /api/group returns a polysemous record's alternate senses
//
// Clip references are returned as absolute .mp4 URLs. Every request is bound
// by a timeout; Retriable classifies failures for the ingestion job.
package dictapi
