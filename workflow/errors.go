package workflow

import (
	"errors"
	"fmt"
	"io/fs"

	"predictdemo/ml"
)

// Kind classifies a workflow failure for the presentation layer.
type Kind int

const (
	KindNone Kind = iota
	NotFound
	LoadError
	SchemaMismatch
	UnexpectedError
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case NotFound:
		return "not_found"
	case LoadError:
		return "load_error"
	case SchemaMismatch:
		return "schema_mismatch"
	default:
		return "unexpected_error"
	}
}

// Guidance is the user-facing hint shown next to a failure of the given kind.
func Guidance(k Kind) string {
	switch k {
	case NotFound:
		return "Make sure the file exists in the data directory."
	case LoadError:
		return "Check that the model artifact was exported with a compatible library version."
	case SchemaMismatch:
		return "Make sure the dataset columns match the columns used when the model was trained."
	case UnexpectedError:
		return "An unexpected error occurred while running the prediction."
	default:
		return ""
	}
}

// ErrModelNotReady is returned when a prediction is requested before a model
// has been resolved for the session.
var ErrModelNotReady = errors.New("model not ready")

type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
	// Detail carries diagnostic context for unexpected failures.
	Detail string
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. Errors that are not *Error are classified by the
// sentinel they wrap.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, ml.ErrCorruptArtifact), errors.Is(err, ml.ErrIncompatibleArtifact):
		return LoadError
	case errors.Is(err, ml.ErrSchemaMismatch):
		return SchemaMismatch
	default:
		return UnexpectedError
	}
}

func wrap(op, path string, err error) *Error {
	return &Error{Kind: classify(err), Op: op, Path: path, Err: err}
}

func notFound(op, path string) *Error {
	return &Error{Kind: NotFound, Op: op, Path: path, Err: fmt.Errorf("file %q not found: %w", path, fs.ErrNotExist)}
}
