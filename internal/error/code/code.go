package code

// HTTP status codes used by the response helpers.
const (
	// StatusOK - 200: success.
	StatusOK = 200
	// StatusBadRequest - 400: bad request parameters.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: unauthorized.
	StatusUnauthorized = 401
	// StatusForbidden - 403: forbidden.
	StatusForbidden = 403
	// StatusNotFound - 404: resource not found.
	StatusNotFound = 404
	// StatusInternalServerError - 500: internal server error.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: too many requests.
	StatusTooManyRequests = 429
	// StatusBadGateway - 502: upstream device error.
	StatusBadGateway = 502
)

// General error codes (100xxx).
const (
	// ErrSuccess - 200: success.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: unknown error.
	ErrUnknown
	// ErrBind - 400: request binding error.
	ErrBind
	// ErrValidation - 400: request validation error.
	ErrValidation
	// ErrTokenInvalid - 401: invalid token.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: request rate too high.
	ErrTooManyRequests
)

// Admin error codes (101xxx).
const (
	// ErrAdminNotFound - 404: admin not found.
	ErrAdminNotFound int = iota + 101000
	// ErrAdminAlreadyExist - 400: admin already exists.
	ErrAdminAlreadyExist
	// ErrAdminPasswordIncorrect - 401: admin password incorrect.
	ErrAdminPasswordIncorrect
)

// Turnstile and device error codes (102xxx).
const (
	// ErrTurnstileNotFound - 404: turnstile not found.
	ErrTurnstileNotFound int = iota + 102000
	// ErrTurnstileAlreadyExist - 400: turnstile already exists.
	ErrTurnstileAlreadyExist
	// ErrDeviceOffline - 502: device unreachable.
	ErrDeviceOffline
	// ErrDeviceNotActivated - 502: device not activated.
	ErrDeviceNotActivated
	// ErrDoorOpenFailed - 502: door open command failed.
	ErrDoorOpenFailed
)

// Student error codes (103xxx).
const (
	// ErrStudentNotFound - 404: student not found.
	ErrStudentNotFound int = iota + 103000
	// ErrStudentAlreadyExist - 400: student already exists.
	ErrStudentAlreadyExist
	// ErrStudentNoPhoto - 400: student has no face photo.
	ErrStudentNoPhoto
)

// Supervisor error codes (104xxx).
const (
	// ErrSupervisorNotFound - 404: supervisor not found.
	ErrSupervisorNotFound int = iota + 104000
	// ErrSupervisorAlreadyExist - 400: supervisor already exists.
	ErrSupervisorAlreadyExist
	// ErrSupervisorNoPhoto - 400: supervisor has no face photo.
	ErrSupervisorNoPhoto
)

// Exam error codes (105xxx).
const (
	// ErrExamNotFound - 404: exam not found.
	ErrExamNotFound int = iota + 105000
	// ErrExamAlreadyExist - 400: exam already exists.
	ErrExamAlreadyExist
	// ErrShiftNotFound - 404: shift not found.
	ErrShiftNotFound
	// ErrExamNotActive - 400: exam not in an active state.
	ErrExamNotActive
)

// Provisioning error codes (106xxx).
const (
	// ErrProvisionRunning - 400: a push for this turnstile is already running.
	ErrProvisionRunning int = iota + 106000
	// ErrProvisionFailed - 502: push finished with failures.
	ErrProvisionFailed
	// ErrRosterEmpty - 400: nothing to push for this turnstile.
	ErrRosterEmpty
	// ErrImageCompression - 500: face image could not be compressed.
	ErrImageCompression
)

// Database error codes (107xxx).
const (
	// ErrDatabase - 500: database error.
	ErrDatabase int = iota + 107000
	// ErrRecordNotFound - 404: record not found.
	ErrRecordNotFound
)

// Migration error codes (109xxx).
const (
	// ErrMigrationFailed - 500: migration failed.
	ErrMigrationFailed int = iota + 109000
	// ErrConnectionFailed - 500: connection failed.
	ErrConnectionFailed
)
