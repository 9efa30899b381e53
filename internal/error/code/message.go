package code

// Error code to message mapping.
var codeMessageMap = map[int]string{
	// General
	ErrSuccess:         "success",
	ErrUnknown:         "unknown error",
	ErrBind:            "request binding error",
	ErrValidation:      "request validation error",
	ErrTokenInvalid:    "invalid authentication token",
	ErrTooManyRequests: "too many requests",

	// Admin
	ErrAdminNotFound:          "admin not found",
	ErrAdminAlreadyExist:      "admin already exists",
	ErrAdminPasswordIncorrect: "admin password incorrect",

	// Turnstile and device
	ErrTurnstileNotFound:     "turnstile not found",
	ErrTurnstileAlreadyExist: "turnstile already exists",
	ErrDeviceOffline:         "device unreachable",
	ErrDeviceNotActivated:    "device not activated",
	ErrDoorOpenFailed:        "door open command failed",

	// Student
	ErrStudentNotFound:     "student not found",
	ErrStudentAlreadyExist: "student already exists",
	ErrStudentNoPhoto:      "student has no face photo",

	// Supervisor
	ErrSupervisorNotFound:     "supervisor not found",
	ErrSupervisorAlreadyExist: "supervisor already exists",
	ErrSupervisorNoPhoto:      "supervisor has no face photo",

	// Exam
	ErrExamNotFound:     "exam not found",
	ErrExamAlreadyExist: "exam already exists",
	ErrShiftNotFound:    "shift not found",
	ErrExamNotActive:    "exam is not active",

	// Provisioning
	ErrProvisionRunning: "push already running for this turnstile",
	ErrProvisionFailed:  "push finished with failures",
	ErrRosterEmpty:      "nothing to push for this turnstile",
	ErrImageCompression: "face image could not be compressed",

	// Database
	ErrDatabase:       "database error",
	ErrRecordNotFound: "record not found",

	// Migration
	ErrMigrationFailed:  "migration failed",
	ErrConnectionFailed: "connection failed",
}

// Error code to HTTP status mapping.
var codeStatusMap = map[int]int{
	// General
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// Admin
	ErrAdminNotFound:          StatusNotFound,
	ErrAdminAlreadyExist:      StatusBadRequest,
	ErrAdminPasswordIncorrect: StatusUnauthorized,

	// Turnstile and device
	ErrTurnstileNotFound:     StatusNotFound,
	ErrTurnstileAlreadyExist: StatusBadRequest,
	ErrDeviceOffline:         StatusBadGateway,
	ErrDeviceNotActivated:    StatusBadGateway,
	ErrDoorOpenFailed:        StatusBadGateway,

	// Student
	ErrStudentNotFound:     StatusNotFound,
	ErrStudentAlreadyExist: StatusBadRequest,
	ErrStudentNoPhoto:      StatusBadRequest,

	// Supervisor
	ErrSupervisorNotFound:     StatusNotFound,
	ErrSupervisorAlreadyExist: StatusBadRequest,
	ErrSupervisorNoPhoto:      StatusBadRequest,

	// Exam
	ErrExamNotFound:     StatusNotFound,
	ErrExamAlreadyExist: StatusBadRequest,
	ErrShiftNotFound:    StatusNotFound,
	ErrExamNotActive:    StatusBadRequest,

	// Provisioning
	ErrProvisionRunning: StatusBadRequest,
	ErrProvisionFailed:  StatusBadGateway,
	ErrRosterEmpty:      StatusBadRequest,
	ErrImageCompression: StatusInternalServerError,

	// Database
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// Migration
	ErrMigrationFailed:  StatusInternalServerError,
	ErrConnectionFailed: StatusInternalServerError,
}

// GetMessage returns the message for an error code.
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "unknown error"
}

// GetStatus returns the HTTP status for an error code.
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
