package base

// DirectoryOp is the kind of change observed in a watched directory
type DirectoryOp int

// Observed directory operations
const (
	// OpCreate means a new file appeared in the directory
	OpCreate DirectoryOp = iota
	// OpModify means an existing file grew or changed
	OpModify
)

// String returns the operation name for logging
func (op DirectoryOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	default:
		return "unknown"
	}
}

// DirectoryNotification is one change notification for a file in a watched directory
type DirectoryNotification struct {
	Path string
	Op   DirectoryOp
}

// DirectoryListener watches a single directory and reports file creations and
// modifications, in observation order, on the Notifications channel.
//
// The contract is behavioral only: implementations may use OS-level notifications or
// periodic polling. A listener works in background after Launch; Close releases the
// watch and results in the Notifications channel being closed, after which the listener
// must not send again. Close must be safe to call more than once.
type DirectoryListener interface {
	Launch()
	Notifications() <-chan DirectoryNotification
	Close() error
}
