package service

// Messages returned to callers when a required document is missing.
const (
	MsgStudentNotFound         = "Student not found"
	MsgGroupNotFound           = "Group not found"
	MsgStudentOrGroupNotFound  = "Student or group not found"
	MsgStudentOrNewGroupAbsent = "Student or new group not found"
)

const msgReservedFields = "Fields assigned by the server cannot be set: "

// NotFoundError is returned when a lookup an operation depends on finds nothing.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func notFound(msg string) error { return &NotFoundError{Message: msg} }

// InvalidInputError is returned for caller input the service cannot use,
// such as an upload that is not a spreadsheet.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }
