package command

import "fmt"

// ExecError reports the statement that aborted a table group.
type ExecError struct {
	Table       string
	Description string
	SQL         string
	Err         error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Description, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
