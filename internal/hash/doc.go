// Package hash provides the hashing utilities used across cepgo.
//
// # CRC32-Castagnoli (CRC32C)
//
// Handoff frames are protected by CRC32C, which Go's crc32 package computes
// with hardware instructions when available:
//
//	checksum := hash.CRC32C(body)
//
// # xxhash64
//
// Hashed indexes bucket their keys by a 64-bit xxhash. Multi-field keys are
// hashed part by part so that ("ab","c") and ("a","bc") differ:
//
//	h := hash.NewKeyHasher()
//	h.Add(field1, true)
//	h.Add(nil, false) // null field
//	bucket := h.Sum64()
package hash
