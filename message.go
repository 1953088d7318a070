package libobs

import "fmt"

// MessageType mirrors the websocket frame opcodes carried by a Message.
type MessageType byte

const (
	DataMessage   MessageType = 1
	BinaryMessage MessageType = 2
	CloseMessage  MessageType = 8
	PingMessage   MessageType = 9
	PongMessage   MessageType = 10
)

func (t MessageType) String() string {
	switch t {
	case DataMessage:
		return "data"
	case BinaryMessage:
		return "binary"
	case CloseMessage:
		return "close"
	case PingMessage:
		return "ping"
	case PongMessage:
		return "pong"
	default:
		return fmt.Sprintf("MessageType(%d)", byte(t))
	}
}

func (t MessageType) IsData() bool { return t == DataMessage || t == BinaryMessage }

func (t MessageType) IsControl() bool { return t >= CloseMessage }

// Message is one frame received from or sent to a websocket peer.
type Message interface {
	Type() MessageType
	Data() []byte
	String() string
}

type message struct {
	MessageType MessageType
	MessageData []byte
}

func (m message) Type() MessageType { return m.MessageType }

func (m message) Data() []byte { return m.MessageData }

func (m message) String() string {
	return fmt.Sprintf("Message{type=%s,data=%s}", m.MessageType, m.MessageData)
}

// closeMessage carries the close code sent by the peer.
type closeMessage struct {
	message
	Code int
}

func (m closeMessage) String() string {
	return fmt.Sprintf("Message{type=%s,code=%d,data=%s}", m.MessageType, m.Code, m.MessageData)
}

func (m closeMessage) Error() string { return m.String() }

func NewMessage(mt MessageType, data []byte) Message {
	return message{MessageType: mt, MessageData: data}
}

func NewDataMessage(data []byte) Message { return NewMessage(DataMessage, data) }

func NewBinaryMessage(data []byte) Message { return NewMessage(BinaryMessage, data) }

func NewPingMessage(data []byte) Message { return NewMessage(PingMessage, data) }

func NewPongMessage(data []byte) Message { return NewMessage(PongMessage, data) }

// NewCloseMessage builds the close frame a peer sent, which also satisfies error.
func NewCloseMessage(code int, data []byte) Message {
	return closeMessage{
		message: message{MessageType: CloseMessage, MessageData: data},
		Code:    code,
	}
}
