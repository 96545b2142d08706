package comic

// EventType discriminates the messages carried by the batch event stream.
type EventType string

const (
	// EventRegister announces a new entity before processing begins.
	EventRegister EventType = "register"
	// EventUpdate carries a status transition for a registered entity.
	EventUpdate EventType = "update"
	// EventDone signals that the batch has finished; emitted exactly once.
	EventDone EventType = "done"
)

// Event is the producer-to-observer message. ID and FileName are set for
// register events, ID and Status for updates, and neither for done.
//
// Events for a given ID arrive in the order the owning goroutine emitted
// them; interleaving across IDs is unspecified.
type Event struct {
	Type     EventType
	ID       int
	FileName string
	Status   Status
}

// RegisterEvent announces a comic entering the batch.
func RegisterEvent(id int, fileName string) Event {
	return Event{Type: EventRegister, ID: id, FileName: fileName}
}

// UpdateEvent reports a status transition.
func UpdateEvent(id int, status Status) Event {
	return Event{Type: EventUpdate, ID: id, Status: status}
}

// DoneEvent signals batch completion.
func DoneEvent() Event {
	return Event{Type: EventDone}
}
