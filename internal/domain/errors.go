package domain

import "errors"

// Failure kinds surfaced by the normalizers and the tabular I/O layer.
// Callers match them with errors.Is; the wrapped message carries the detail.
var (
	ErrSourceUnavailable      = errors.New("source unavailable")
	ErrInvalidData            = errors.New("invalid data")
	ErrDestinationUnavailable = errors.New("destination unavailable")

	// ErrMalformedReading marks a live message that is not a JSON reading at
	// all. It is always reported together with ErrInvalidData.
	ErrMalformedReading = errors.New("malformed reading")
)

// ErrorKind classifies an error returned by this package or its adapters.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindSourceUnavailable
	KindInvalidData
	KindDestinationUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "source_unavailable"
	case KindInvalidData:
		return "invalid_data"
	case KindDestinationUnavailable:
		return "destination_unavailable"
	default:
		return "unknown"
	}
}

// KindOf reports which failure kind err wraps. A nil error is KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrSourceUnavailable):
		return KindSourceUnavailable
	case errors.Is(err, ErrInvalidData):
		return KindInvalidData
	case errors.Is(err, ErrDestinationUnavailable):
		return KindDestinationUnavailable
	default:
		return KindUnknown
	}
}
