package core

// User-facing messages carried by broadcast error events.
const (
	MsgRoomBusy         = "a reply is already being generated in this room"
	MsgEmptyMessage     = "message text is empty"
	MsgGenerationFailed = "generation failed"
)
