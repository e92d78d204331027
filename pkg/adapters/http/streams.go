package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// AllWorkflows subscribes to events from every workflow.
const AllWorkflows = "*"

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // Workflow -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a buffered channel for topic (a workflow name or AllWorkflows).
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(topic string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

// Broadcast delivers msg to subscribers of workflow and of AllWorkflows.
// Slow subscribers miss messages instead of blocking the engine.
func (sm *StreamManager) Broadcast(workflow string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, topic := range []string{workflow, AllWorkflows} {
		for ch := range sm.subscribers[topic] {
			select {
			case ch <- msg:
			default:
				slog.Warn("SSE: Client buffer full, dropping message", "workflow", workflow)
			}
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, subs := range sm.subscribers {
		n += len(subs)
	}
	return n
}

func (sm *StreamManager) publish(workflow string, ev any, err error) {
	payload, mErr := json.Marshal(ev)
	if mErr != nil {
		return
	}
	if err != nil {
		// Splice the error text into the event object.
		var fields map[string]any
		if json.Unmarshal(payload, &fields) == nil {
			fields["error"] = err.Error()
			if withErr, e := json.Marshal(fields); e == nil {
				payload = withErr
			}
		}
	}
	sm.Broadcast(workflow, string(payload))
}

// Hooks returns lifecycle hooks that publish every event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) { sm.publish(e.Workflow, e, nil) },
		OnRunEnd:   func(_ context.Context, e *domain.RunEvent) { sm.publish(e.Workflow, e, e.Err) },
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			sm.publish(e.Workflow, e, nil)
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			sm.publish(e.Workflow, e, e.Err)
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) { sm.publish(e.Workflow, e, nil) },
	}
}
