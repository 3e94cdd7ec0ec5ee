package apperrors

type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	statuscode    int
}

// New creates a root error with no base. Derive from it with (Error).New to
// build a taxonomy.
func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll renders the message together with every wrapped error, separated
// by "; ". Used when surfacing errors over HTTP.
func (e *appError) ErrorAll() string {
	if len(e.wrappedErrors) == 0 {
		return e.msg
	}
	msg := e.msg
	for i, err := range e.wrappedErrors {
		if i == 0 {
			msg += ": "
		} else {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

// New derives a child error. The child inherits the status code and keeps a
// reference to its base so Is() walks the chain.
func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		statuscode: e.statuscode,
		base:       e,
	}
}

func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:           msg,
		statuscode:    e.statuscode,
		base:          e,
		wrappedErrors: e.wrappedErrors,
	}
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	return &appError{
		msg:           msg,
		statuscode:    e.statuscode,
		base:          e,
		wrappedErrors: append(append([]error{}, e.wrappedErrors...), err...),
	}
}

func (e *appError) Err(err ...error) Error {
	return &appError{
		msg:           e.msg,
		statuscode:    e.statuscode,
		base:          e,
		wrappedErrors: append(append([]error{}, e.wrappedErrors...), err...),
	}
}

func (e *appError) Is(target error) bool {
	if e == target {
		return true
	}
	if e.base != nil {
		if e.base == target || e.base.Is(target) {
			return true
		}
	}
	for _, err := range e.wrappedErrors {
		if err == target {
			return true
		}
	}
	return false
}

func (e *appError) SetStatusCode(code int) Error {
	e.statuscode = code
	return e
}

func (e *appError) StatusCode() int {
	return e.statuscode
}
