package extract

import "errors"

// ErrColumnsNotFound is reported when the header row names neither target column.
var ErrColumnsNotFound = errors.New("could not find 'title' or 'solution' columns in the Excel file")

// ErrorKind classifies a ParseError.
type ErrorKind string

const (
	// KindDecode means the bytes could not be decoded as a supported workbook.
	KindDecode ErrorKind = "decode"
	// KindColumns means the workbook decoded but no target column was found.
	KindColumns ErrorKind = "columns"
)

// ParseError is the only error returned by Extract. For KindDecode the message is the
// decoder's own, unchanged.
type ParseError struct {
	Kind ErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " error"
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a ParseError caused by undecodable input.
func IsDecodeError(err error) bool {
	return hasKind(err, KindDecode)
}

// IsColumnsError reports whether err is a ParseError caused by a missing header.
func IsColumnsError(err error) bool {
	return hasKind(err, KindColumns)
}

func hasKind(err error, kind ErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}
