package entity

import "errors"

var (
	// ErrInvalidEventKind means the notification payload carried no
	// recognizable single-object reference.
	ErrInvalidEventKind = errors.New("invalid event kind")

	// ErrEventIgnored means the payload is well formed but not about an
	// object creation, e.g. a delete notification. Ignore, don't reject.
	ErrEventIgnored = errors.New("event ignored")

	// ErrUnresolvableDocumentID means the object key has no usable stem.
	ErrUnresolvableDocumentID = errors.New("unresolvable document id")

	// ErrSourceNotFound means the source object is gone; the delivery
	// layer owns redelivery, the handler does not retry this.
	ErrSourceNotFound = errors.New("source object not found")

	// ErrExtractionTransient is retryable with backoff.
	ErrExtractionTransient = errors.New("extraction transient error")

	// ErrExtractionRejected is terminal, e.g. an unsupported format.
	ErrExtractionRejected = errors.New("extraction rejected")

	// ErrInvalidFileName means an upload file name is unusable as an
	// object key, e.g. it would escape the upload prefix.
	ErrInvalidFileName = errors.New("invalid file name")

	ErrNotFound = errors.New("document not found")
)
