package ws

// Command is a host operation sent to the attached renderer. The renderer
// answers every command with an ack frame carrying the same sequence number.
type Command struct {
	Seq         uint64         `json:"seq"`
	Op          string         `json:"op"`
	Animate     bool           `json:"animate,omitempty"`
	Index       int            `json:"index,omitempty"`
	ContainerID string         `json:"container_id,omitempty"`
	Screen      *ScreenPayload `json:"screen,omitempty"`
}

// Command ops.
const (
	OpPushPage   = "push_page"
	OpPopPage    = "pop_page"
	OpInsertPage = "insert_page"
	OpRemovePage = "remove_page"
	OpPushModal  = "push_modal"
	OpPopModal   = "pop_modal"
)

// ScreenPayload is the wire form of a resolved screen.
type ScreenPayload struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Title    string         `json:"title"`
	Contract string         `json:"contract,omitempty"`
	View     map[string]any `json:"view,omitempty"`
}

// Frame is anything the renderer sends back: command acks and
// renderer-originated pop events.
type Frame struct {
	Type  string `json:"type"` // "ack" or "event"
	Seq   uint64 `json:"seq,omitempty"`
	Error string `json:"error,omitempty"`

	Event       string `json:"event,omitempty"` // "page_popped" or "modal_popped"
	ContainerID string `json:"container_id,omitempty"`
	ScreenID    string `json:"screen_id,omitempty"`
}

// Frame types and events.
const (
	FrameAck   = "ack"
	FrameEvent = "event"

	EventPagePopped  = "page_popped"
	EventModalPopped = "modal_popped"
)
