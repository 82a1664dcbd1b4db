package types

// BlockInfo pins a computation to a specific chain snapshot. Every read the
// engine performs is parameterized by an explicitly supplied BlockInfo; the
// engine never asks for "latest" itself, which makes repeated calls with the
// same address and block idempotent.
type BlockInfo struct {
	Number    uint64
	Timestamp uint64
}
