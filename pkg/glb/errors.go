package glb

import "errors"

var (
	ErrInvalidMagic             = errors.New("invalid glTF magic")
	ErrUnsupportedVersion       = errors.New("unsupported binary glTF version")
	ErrUnsupportedContentFormat = errors.New("unsupported binary glTF content format")
	ErrMissingJSONChunk         = errors.New("binary glTF has no JSON chunk")
	ErrMalformedJSON            = errors.New("malformed glTF JSON")
	ErrTruncatedContainer       = errors.New("truncated binary glTF")
)

// ErrorCode returns a stable identifier for a decode error, or "" when err
// is not one of the package errors.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMagic):
		return "invalid_magic"
	case errors.Is(err, ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, ErrUnsupportedContentFormat):
		return "unsupported_content_format"
	case errors.Is(err, ErrMissingJSONChunk):
		return "missing_json_chunk"
	case errors.Is(err, ErrMalformedJSON):
		return "malformed_json"
	case errors.Is(err, ErrTruncatedContainer):
		return "truncated_container"
	default:
		return ""
	}
}
