package app

// EventKind identifies what changed in a TaskList.
type EventKind string

// EventLoaded and related constants name TaskList change notifications.
const (
	EventLoaded        EventKind = "loaded"
	EventAdded         EventKind = "added"
	EventRemoved       EventKind = "removed"
	EventToggled       EventKind = "toggled"
	EventFilterChanged EventKind = "filter"
	EventSortChanged   EventKind = "sort"
	EventImported      EventKind = "imported"
)

// Event describes one state change. TaskID is set for single-task mutations.
type Event struct {
	Kind   EventKind
	TaskID int64
}

// Subscribe registers fn to run after every state change, in registration
// order. The returned func removes the subscription.
func (l *TaskList) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	l.nextObserverID++
	id := l.nextObserverID
	l.observers = append(l.observers, observer{id: id, fn: fn})
	return func() {
		for idx, o := range l.observers {
			if o.id == id {
				l.observers = append(l.observers[:idx:idx], l.observers[idx+1:]...)
				return
			}
		}
	}
}

func (l *TaskList) notify(ev Event) {
	for _, o := range l.observers {
		o.fn(ev)
	}
}
