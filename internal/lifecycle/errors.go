package lifecycle

import "fmt"

type Event string

const (
	EventImportStarted  Event = "importStarted"
	EventImportFinished Event = "importFinished"
	EventBeforeTable    Event = "beforeImportTable"
	EventAfterTable     Event = "afterImportTable"
)

// DispatchError reports the hook that aborted dispatch of an event.
type DispatchError struct {
	Event Event
	Hook  int // position in registration order
	Table string
	Err   error
}

func (e *DispatchError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("hook %d failed on %s for table %s: %v", e.Hook, e.Event, e.Table, e.Err)
	}
	return fmt.Sprintf("hook %d failed on %s: %v", e.Hook, e.Event, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
