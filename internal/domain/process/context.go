package process

// Context is the saved execution state of a process that is not Running. The
// contract is the classic one: save the full state of the outgoing process,
// restore that of the incoming, such that resumption is observably identical
// to never having been preempted. The concrete representation is a struct
// snapshot; nothing outside this package depends on its layout.
type Context struct {
	PC   uint64
	SP   uint64
	Regs [16]uint64
}
