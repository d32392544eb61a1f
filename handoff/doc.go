// Package handoff moves trays of rowops between goroutines that each own
// their tables.
//
// A tray is encoded into a self-describing frame: the schema of every label
// it references travels with the rows, so the receiver can rebuild rows in
// its own deep-copied row types. Frames carry a CRC32C checksum and may be
// compressed with LZ4 or ZSTD.
//
// Queue is a bounded in-process channel of frames whose buffered bytes and
// throughput are governed by a Controller. Broadcast encodes a tray once and
// delivers it to several queues concurrently.
package handoff
