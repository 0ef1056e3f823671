package spine

// AnimationStateListener 生命周期回调，全部在 drain 时按入队顺序调用
type AnimationStateListener interface {
	Start(entry *TrackEntry)
	Interrupt(entry *TrackEntry)
	End(entry *TrackEntry)
	Dispose(entry *TrackEntry)
	Complete(entry *TrackEntry)
	Event(entry *TrackEntry, event *Event)
}

// ListenerFuncs 只关心部分回调时使用，未设置的回调忽略
type ListenerFuncs struct {
	OnStart     func(entry *TrackEntry)
	OnInterrupt func(entry *TrackEntry)
	OnEnd       func(entry *TrackEntry)
	OnDispose   func(entry *TrackEntry)
	OnComplete  func(entry *TrackEntry)
	OnEvent     func(entry *TrackEntry, event *Event)
}

func (l *ListenerFuncs) Start(entry *TrackEntry) {
	if l.OnStart != nil {
		l.OnStart(entry)
	}
}

func (l *ListenerFuncs) Interrupt(entry *TrackEntry) {
	if l.OnInterrupt != nil {
		l.OnInterrupt(entry)
	}
}

func (l *ListenerFuncs) End(entry *TrackEntry) {
	if l.OnEnd != nil {
		l.OnEnd(entry)
	}
}

func (l *ListenerFuncs) Dispose(entry *TrackEntry) {
	if l.OnDispose != nil {
		l.OnDispose(entry)
	}
}

func (l *ListenerFuncs) Complete(entry *TrackEntry) {
	if l.OnComplete != nil {
		l.OnComplete(entry)
	}
}

func (l *ListenerFuncs) Event(entry *TrackEntry, event *Event) {
	if l.OnEvent != nil {
		l.OnEvent(entry, event)
	}
}

type queuedEvent struct {
	kind  EventType
	entry *TrackEntry
	event *Event
}

// eventQueue drain 期间新入队的事件由同一个循环继续处理
type eventQueue struct {
	state         *AnimationState
	objects       []queuedEvent
	next          int // 下一个要派发的下标，drain 之外为 0
	drainDisabled bool
}

func (q *eventQueue) start(entry *TrackEntry) {
	q.objects = append(q.objects, queuedEvent{kind: EventStart, entry: entry})
	q.state.animationsChanged = true
}

func (q *eventQueue) interrupt(entry *TrackEntry) {
	q.objects = append(q.objects, queuedEvent{kind: EventInterrupt, entry: entry})
}

func (q *eventQueue) end(entry *TrackEntry) {
	q.objects = append(q.objects, queuedEvent{kind: EventEnd, entry: entry})
	q.state.animationsChanged = true
}

func (q *eventQueue) dispose(entry *TrackEntry) {
	q.objects = append(q.objects, queuedEvent{kind: EventDispose, entry: entry})
}

func (q *eventQueue) complete(entry *TrackEntry) {
	q.objects = append(q.objects, queuedEvent{kind: EventComplete, entry: entry})
}

func (q *eventQueue) event(entry *TrackEntry, event *Event) {
	q.objects = append(q.objects, queuedEvent{kind: EventFired, entry: entry, event: event})
}

func (q *eventQueue) drain() {
	if q.drainDisabled {
		return
	}
	q.drainDisabled = true
	for q.next < len(q.objects) {
		item := q.objects[q.next]
		q.next++
		entry := item.entry
		listeners := q.state.listeners
		switch item.kind {
		case EventStart:
			if entry.Listener != nil {
				entry.Listener.Start(entry)
			}
			for _, listener := range listeners {
				listener.Start(entry)
			}
		case EventInterrupt:
			if entry.Listener != nil {
				entry.Listener.Interrupt(entry)
			}
			for _, listener := range listeners {
				listener.Interrupt(entry)
			}
		case EventEnd:
			if entry.Listener != nil {
				entry.Listener.End(entry)
			}
			for _, listener := range listeners {
				listener.End(entry)
			}
			q.disposeEntry(entry, q.state.listeners)
		case EventDispose:
			q.disposeEntry(entry, listeners)
		case EventComplete:
			if entry.Listener != nil {
				entry.Listener.Complete(entry)
			}
			for _, listener := range listeners {
				listener.Complete(entry)
			}
		case EventFired:
			if entry.Listener != nil {
				entry.Listener.Event(entry, item.event)
			}
			for _, listener := range listeners {
				listener.Event(entry, item.event)
			}
		}
	}
	q.clear()
	q.drainDisabled = false
}

// disposeEntry end 之后必定 dispose，entry 在这里回到对象池
func (q *eventQueue) disposeEntry(entry *TrackEntry, listeners []AnimationStateListener) {
	if entry.Listener != nil {
		entry.Listener.Dispose(entry)
	}
	for _, listener := range listeners {
		listener.Dispose(entry)
	}
	q.state.pool.release(entry)
}

func (q *eventQueue) clear() {
	clear(q.objects)
	q.objects = q.objects[:0]
	q.next = 0
}

// discard 丢弃还没派发的事件，其中等待 end 或 dispose 的 entry 直接回到对象池
func (q *eventQueue) discard() {
	for _, item := range q.objects[q.next:] {
		if item.kind != EventEnd && item.kind != EventDispose {
			continue
		}
		if item.entry.inUse {
			q.state.pool.release(item.entry)
		}
	}
	q.clear()
}
