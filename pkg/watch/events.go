package watch

import (
    "context"
    "sync"
    "time"
)

type EventType string

const (
    // EventDisagreement: a target that agreed (or was unseen) now disagrees.
    EventDisagreement EventType = "disagreement"
    // EventAgreement: a target that disagreed or failed agrees again.
    EventAgreement EventType = "agreement"
    // EventCheckFailed: a check errored where the previous one did not.
    EventCheckFailed EventType = "check_failed"
)

// Event describes a change in a target's state between two rounds.
type Event struct {
    Type   EventType
    At     time.Time
    Status TargetStatus
}

// Subscribe returns a buffered channel of events, closed when ctx is done.
// Events are dropped for slow consumers.
func (m *Monitor) Subscribe(ctx context.Context) <-chan Event {
    ch := make(chan Event, 64)
    m.eb.add(ch)
    go func() {
        <-ctx.Done()
        m.eb.remove(ch)
        close(ch)
    }()
    return ch
}

type eventBus struct {
    mu   sync.Mutex
    subs map[chan Event]struct{}
}

func (e *eventBus) add(ch chan Event) {
    e.mu.Lock()
    defer e.mu.Unlock()
    if e.subs == nil { e.subs = make(map[chan Event]struct{}) }
    e.subs[ch] = struct{}{}
}

func (e *eventBus) remove(ch chan Event) {
    e.mu.Lock()
    defer e.mu.Unlock()
    delete(e.subs, ch)
}

func (e *eventBus) publish(ev Event) {
    e.mu.Lock()
    defer e.mu.Unlock()
    for ch := range e.subs {
        select {
        case ch <- ev:
        default:
        }
    }
}

// transition returns the event implied by moving from prev to cur, if any.
func transition(prev *TargetStatus, cur TargetStatus) (EventType, bool) {
    switch {
    case cur.Error != "":
        if prev == nil || prev.Error == "" { return EventCheckFailed, true }
    case !cur.Agrees:
        if prev == nil || prev.Agrees || prev.Error != "" { return EventDisagreement, true }
    default:
        if prev != nil && !prev.OK() { return EventAgreement, true }
    }
    return "", false
}
