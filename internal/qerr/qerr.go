// Package qerr defines the typed error taxonomy shared across qfs
// components, so callers can branch on Code instead of matching strings.
package qerr

import "fmt"

// Code classifies a qfs error for CLI exit-code and MCP error-code mapping.
type Code int

const (
	Other Code = iota
	Database
	Io
	Serialization
	CollectionNotFound
	DocumentNotFound
	InvalidQuery
	IndexError
	ParseError
	ConfigError
	EmbeddingError
	EmbeddingsRequired
)

func (c Code) String() string {
	switch c {
	case Database:
		return "Database"
	case Io:
		return "Io"
	case Serialization:
		return "Serialization"
	case CollectionNotFound:
		return "CollectionNotFound"
	case DocumentNotFound:
		return "DocumentNotFound"
	case InvalidQuery:
		return "InvalidQuery"
	case IndexError:
		return "IndexError"
	case ParseError:
		return "ParseError"
	case ConfigError:
		return "ConfigError"
	case EmbeddingError:
		return "EmbeddingError"
	case EmbeddingsRequired:
		return "EmbeddingsRequired"
	default:
		return "Other"
	}
}

// Error is the typed error value used throughout qfs.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

func Database_(msg string, err error) *Error      { return Wrap(Database, msg, err) }
func Io_(msg string, err error) *Error            { return Wrap(Io, msg, err) }
func Serialization_(msg string, err error) *Error { return Wrap(Serialization, msg, err) }

func CollectionNotFound_(name string) *Error {
	return New(CollectionNotFound, fmt.Sprintf("collection not found: %s", name))
}

func DocumentNotFound_(path string) *Error {
	return New(DocumentNotFound, fmt.Sprintf("document not found: %s", path))
}

func InvalidQuery_(msg string) *Error {
	return New(InvalidQuery, msg)
}

func IndexError_(msg string, err error) *Error { return Wrap(IndexError, msg, err) }
func ParseError_(msg string, err error) *Error { return Wrap(ParseError, msg, err) }
func ConfigError_(msg string, err error) *Error {
	return Wrap(ConfigError, msg, err)
}

func EmbeddingError_(msg string, err error) *Error {
	return Wrap(EmbeddingError, msg, err)
}

// EmbeddingsRequired carries the fixed, user-actionable message mandated
// for vector/hybrid searches over a collection with no embeddings.
func EmbeddingsRequired_() *Error {
	return New(EmbeddingsRequired, "Vector search requires embeddings. Run 'qfs embed' first or use --mode bm25")
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *Error; otherwise returns Other.
func CodeOf(err error) Code {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Other
	}
	return e.Code
}
