// Package hash provides the checksum used in segment artifact headers.
//
// Every dictionary, forward index and null vector written by segmend carries
// a CRC32-Castagnoli of its body so readers can reject torn or stale bytes.
// Castagnoli is hardware accelerated on amd64 (SSE4.2) and arm64.
package hash
