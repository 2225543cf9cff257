// Package syscall is the trap boundary: a fixed dispatch table decoding
// validated user requests into kernel entry points and marshaling results
// back. The transport below it rejects malformed raw input; this layer
// reports NoSuchProcess and InvalidArgument only for logically-missing
// entities.
package syscall
