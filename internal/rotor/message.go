package rotor

import (
	"reflect"

	"github.com/google/uuid"
)

// BaseMessage is embedded in message types to satisfy the unexported
// messageMarker method of the Message interface. This mirrors the
// sealed-interface trick the wider actor corpus uses to prevent
// external packages from defining Message implementations that skip
// the routing-relevant MessageType method.
type BaseMessage struct{}

func (BaseMessage) messageMarker() {}

// Message is the sealed interface every envelope payload must satisfy.
// Payload type identity (via reflect.TypeOf, see typeToken) is part of
// the routing key used by subscription lookup.
type Message interface {
	messageMarker()

	// MessageType returns a human-readable type name, used for logging
	// and for the routing key alongside the destination address.
	MessageType() string
}

// messageTypeToken is the routing-key component derived from a
// payload's concrete type. Two messages of the same concrete Go type
// always produce equal tokens, regardless of interface value.
type messageTypeToken = reflect.Type

func typeToken(msg Message) messageTypeToken {
	return reflect.TypeOf(msg)
}

// Envelope carries an immutable payload to a destination address. The
// envelope is consumed on delivery: once a handler has processed it,
// no further observation of that envelope is possible.
type Envelope struct {
	// Destination is the address this envelope is routed to.
	Destination Address

	// Payload is the message being delivered.
	Payload Message
}

// RequestID uniquely identifies one request/response pairing. A fresh
// RequestID is minted for every outgoing request and echoed back on
// the corresponding response, allowing the initiator to match replies
// (or timeouts) to the request that produced them.
type RequestID uuid.UUID

// String renders the request ID for logging.
func (r RequestID) String() string {
	return uuid.UUID(r).String()
}

func newRequestID() RequestID {
	return RequestID(uuid.New())
}

// Request is implemented by message types that carry a RequestID,
// i.e. anything sent via ActorBase.Request.
type Request interface {
	Message
	GetRequestID() RequestID
}

// BaseRequest is embedded in request payload types to satisfy the
// Request interface alongside Message.
type BaseRequest struct {
	BaseMessage
	ReqID RequestID
}

// GetRequestID implements Request.
func (r BaseRequest) GetRequestID() RequestID { return r.ReqID }

// Response is implemented by message types sent in reply to a
// Request. It carries both the original RequestID and the address
// that produced it, allowing ReplyTo/ReplyWithError style helpers to
// be built symmetrically with Request.
type Response interface {
	Message
	GetRequestID() RequestID
}

// BaseResponse is embedded in response payload types. Origin records
// the address that sent the response, mirroring BaseRequest.
type BaseResponse struct {
	BaseMessage
	ReqID  RequestID
	Origin Address
}

// GetRequestID implements Response.
func (r BaseResponse) GetRequestID() RequestID { return r.ReqID }
