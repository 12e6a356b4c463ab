package wire

import "fmt"

// Handler decodes and acts on a single message body (the bytes following
// the MessageHeader). actingVersion is the header's Version field, passed
// through so generated decoders can apply acting-version field gating.
type Handler func(actingVersion uint16, body []byte) error

// Dispatcher routes a framed SBE message to the handler registered for its
// templateId. It performs the decode gate itself (length, schemaId)
// before looking up the handler, so every registered Handler can assume a
// well-formed header already matched its own schema.
//
// This is pure message routing over already-framed bytes — it owns no
// socket, no goroutine, and no reconnect logic, which stays a transport
// collaborator's job.
type Dispatcher struct {
	schemaID uint16
	handlers map[uint16]Handler
}

// NewDispatcher creates a dispatcher that only accepts messages for the
// given schemaId.
func NewDispatcher(schemaID uint16) *Dispatcher {
	return &Dispatcher{schemaID: schemaID, handlers: make(map[uint16]Handler)}
}

// Register associates a templateId with a handler. Registering the same
// templateId twice replaces the previous handler.
func (d *Dispatcher) Register(templateID uint16, h Handler) {
	d.handlers[templateID] = h
}

// Dispatch decodes the header of msg and invokes the registered handler for
// its templateId with the remaining bytes.
func (d *Dispatcher) Dispatch(msg []byte) error {
	r := bytesReader(msg)
	if r.Len() < HeaderLen {
		return BufferTooShortError{Required: HeaderLen, Available: r.Len()}
	}
	h, err := DecodeMessageHeader(r)
	if err != nil {
		return err
	}
	if h.SchemaID != d.schemaID {
		return SchemaMismatchError{Expected: d.schemaID, Actual: h.SchemaID}
	}
	handler, ok := d.handlers[h.TemplateID]
	if !ok {
		return fmt.Errorf("wire: no handler registered for templateId %d", h.TemplateID)
	}
	required := HeaderLen + int(h.BlockLength)
	if len(msg) < required {
		return BufferTooShortError{Required: required, Available: len(msg)}
	}
	return handler(h.Version, msg[HeaderLen:])
}

// bytesReader adapts a plain []byte to the Reader interface without
// depending on package buffer, keeping wire's dependency graph a leaf.
type bytesReader []byte

func (b bytesReader) Len() int { return len(b) }

func (b bytesReader) GetUint8(offset int) (uint8, error) {
	if offset < 0 || offset >= len(b) {
		return 0, BufferTooShortError{Required: offset + 1, Available: len(b)}
	}
	return b[offset], nil
}

func (b bytesReader) GetUint16(offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(b) {
		return 0, BufferTooShortError{Required: offset + 2, Available: len(b)}
	}
	return uint16(b[offset]) | uint16(b[offset+1])<<8, nil
}
