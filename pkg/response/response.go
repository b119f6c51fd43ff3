package response

// Error codes carried in the error_code field. They mirror the apperr kinds so
// API clients can rebuild a typed error from a response.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	ErrorCode  string      `json:"error_code,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message.
// The code is derived from the status.
func Error(statusCode int, err string) Response {
	return Fail(statusCode, CodeForStatus(statusCode), err)
}

// Fail returns an error response with an explicit error code.
func Fail(statusCode int, code, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		ErrorCode:  code,
	}
}

// CodeForStatus picks the default error code for an HTTP status.
func CodeForStatus(statusCode int) string {
	switch statusCode {
	case 400:
		return CodeValidation
	case 401:
		return CodeUnauthorized
	case 403:
		return CodeForbidden
	case 404:
		return CodeNotFound
	case 409, 429:
		return CodeConflict
	case 502:
		return CodeUpstream
	default:
		return CodeInternal
	}
}
