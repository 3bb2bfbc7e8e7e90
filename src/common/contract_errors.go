package common

import "fmt"

// ContractErrType enumerates the ways a caller can misuse a protocol table.
type ContractErrType uint32

const (
	// UnknownSeed is raised when an operation names a seed that is not in the
	// seed set.
	UnknownSeed ContractErrType = iota
	// SeedExists is raised when a seed is added twice.
	SeedExists
	// UnknownSlot is raised when a buffered-set index is out of range.
	UnknownSlot
	// NotSeed is raised when a node that is not configured as a seed tries to
	// originate data.
	NotSeed
)

// ContractErr is the value carried by panics that signal a sequencing bug in
// the caller. They are never returned for network conditions.
type ContractErr struct {
	dataType string
	errType  ContractErrType
	key      string
}

// NewContractErr ...
func NewContractErr(dataType string, errType ContractErrType, key string) ContractErr {
	return ContractErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error ...
func (e ContractErr) Error() string {
	m := ""
	switch e.errType {
	case UnknownSeed:
		m = "Unknown Seed"
	case SeedExists:
		m = "Seed Already Exists"
	case UnknownSlot:
		m = "Unknown Slot"
	case NotSeed:
		m = "Not A Seed"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsContract checks that an error is of type ContractErr and that its code
// matches the provided ContractErr code.
func IsContract(err error, t ContractErrType) bool {
	contractErr, ok := err.(ContractErr)
	return ok && contractErr.errType == t
}
