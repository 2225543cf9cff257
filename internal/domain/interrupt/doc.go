// Package interrupt converts raw hardware interrupt signals into scheduler
// ticks and driver mailbox messages.
//
// Dispatch is modeled as a direct entry function rather than an asynchronous
// callback: the kernel serializes it with every other mutation of the ready
// queue and the mailboxes, which is the software equivalent of running the
// handler with the line masked. Tests simulate hardware by calling Dispatch
// directly.
package interrupt
