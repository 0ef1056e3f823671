package spine

import (
	"fmt"
	"math"
)

const noEntry int32 = -1

// EntryHandle 对 TrackEntry 的弱引用，entry 被回收后 Entry 返回 nil
type EntryHandle struct {
	index      int32
	generation uint32
}

// TrackEntry 一次 (动画, 循环, 时间窗口) 的播放，由 AnimationState 的对象池分配
type TrackEntry struct {
	Loop                bool
	Delay               float32 // 大于 0 时还没开始播放
	TrackTime           float32
	TrackEnd            float32
	AnimationStart      float32
	AnimationEnd        float32
	AnimationLast       float32
	TimeScale           float32
	Alpha               float32
	MixDuration         float32
	EventThreshold      float32 // 淡出时 mix 小于阈值才派发事件
	AttachmentThreshold float32
	DrawOrderThreshold  float32
	Listener            AnimationStateListener

	state      *AnimationState
	index      int32
	generation uint32
	inUse      bool
	animation  *Animation
	trackIndex int
	next       int32
	mixingFrom int32

	trackLast         float32
	nextTrackLast     float32
	nextAnimationLast float32
	mixTime           float32
	interruptAlpha    float32
	totalAlpha        float32

	timelinesFirst    []bool
	timelinesRotation []float32 // 每个时间线两个值: 累计角度 上一次的差值
}

func (e *TrackEntry) Animation() *Animation { return e.animation }

func (e *TrackEntry) TrackIndex() int { return e.trackIndex }

// Next 同一轨道上排队等待的下一个 entry
func (e *TrackEntry) Next() *TrackEntry { return e.state.pool.get(e.next) }

// MixingFrom 正在淡出的上一个 entry
func (e *TrackEntry) MixingFrom() *TrackEntry { return e.state.pool.get(e.mixingFrom) }

func (e *TrackEntry) MixTime() float32 { return e.mixTime }

func (e *TrackEntry) InterruptAlpha() float32 { return e.interruptAlpha }

func (e *TrackEntry) TrackLast() float32 { return e.trackLast }

func (e *TrackEntry) Handle() EntryHandle {
	return EntryHandle{index: e.index, generation: e.generation}
}

// SetAnimationLast 同时修改下一帧使用的值，用于跳过 lastTime 之前的事件
func (e *TrackEntry) SetAnimationLast(animationLast float32) {
	e.AnimationLast = animationLast
	e.nextAnimationLast = animationLast
}

// AnimationTime 把 TrackTime 映射到 [AnimationStart, AnimationEnd]
func (e *TrackEntry) AnimationTime() float32 {
	if e.Loop {
		duration := e.AnimationEnd - e.AnimationStart
		if duration == 0 {
			return e.AnimationStart
		}
		return mod(e.TrackTime, duration) + e.AnimationStart
	}
	return min(e.TrackTime+e.AnimationStart, e.AnimationEnd)
}

// IsComplete 至少播放完一次
func (e *TrackEntry) IsComplete() bool {
	return e.TrackTime >= e.AnimationEnd-e.AnimationStart
}

// ResetRotationDirections 混合时旋转方向会被记住，切换方向前需要重置
func (e *TrackEntry) ResetRotationDirections() {
	e.timelinesRotation = e.timelinesRotation[:0]
}

func (e *TrackEntry) String() string {
	if e.animation == nil {
		return "<none>"
	}
	return e.animation.Name
}

func (e *TrackEntry) reset(trackIndex int, animation *Animation, loop bool) {
	e.animation = animation
	e.trackIndex = trackIndex
	e.next = noEntry
	e.mixingFrom = noEntry
	e.Listener = nil
	e.Loop = loop

	e.EventThreshold = 0
	e.AttachmentThreshold = 0
	e.DrawOrderThreshold = 0

	e.AnimationStart = 0
	e.AnimationEnd = animation.Duration
	e.AnimationLast = -1
	e.nextAnimationLast = -1

	e.Delay = 0
	e.TrackTime = 0
	e.trackLast = -1
	e.nextTrackLast = -1
	e.TrackEnd = math.MaxFloat32
	e.TimeScale = 1

	e.Alpha = 1
	e.interruptAlpha = 1
	e.totalAlpha = 0
	e.mixTime = 0
	e.MixDuration = 0
	e.timelinesFirst = e.timelinesFirst[:0]
	e.timelinesRotation = e.timelinesRotation[:0]
}

// entryPool slab + 空闲链表，回收时 generation 加一让旧句柄失效
type entryPool struct {
	state   *AnimationState
	entries []*TrackEntry
	free    []int32
}

func (p *entryPool) obtain(trackIndex int, animation *Animation, loop bool) *TrackEntry {
	var entry *TrackEntry
	if n := len(p.free); n > 0 {
		entry = p.entries[p.free[n-1]]
		p.free = p.free[:n-1]
	} else {
		entry = &TrackEntry{state: p.state, index: int32(len(p.entries))}
		p.entries = append(p.entries, entry)
	}
	entry.inUse = true
	entry.reset(trackIndex, animation, loop)
	return entry
}

func (p *entryPool) release(entry *TrackEntry) {
	if !entry.inUse {
		panic(fmt.Sprintf("track entry %d released twice", entry.index))
	}
	entry.inUse = false
	entry.generation++
	entry.animation = nil
	entry.Listener = nil
	entry.next = noEntry
	entry.mixingFrom = noEntry
	entry.timelinesFirst = entry.timelinesFirst[:0]
	entry.timelinesRotation = entry.timelinesRotation[:0]
	p.free = append(p.free, entry.index)
}

func (p *entryPool) get(index int32) *TrackEntry {
	if index == noEntry {
		return nil
	}
	return p.entries[index]
}

func (p *entryPool) resolve(handle EntryHandle) *TrackEntry {
	if handle.index < 0 || int(handle.index) >= len(p.entries) {
		return nil
	}
	entry := p.entries[handle.index]
	if !entry.inUse || entry.generation != handle.generation {
		return nil
	}
	return entry
}
