package spine

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// emptyAnimation 用于把轨道淡出到 setup pose
var emptyAnimation = NewAnimation("<empty>", nil, 0)

// AnimationState 多轨道播放，同一轨道上的动画通过 mixingFrom 链淡入淡出
// 轨道序号越大越后应用，后面的轨道覆盖前面的
type AnimationState struct {
	Data      *AnimationStateData
	TimeScale float32

	tracks            []int32 // 每个轨道当前 entry 在对象池中的下标
	events            []*Event
	listeners         []AnimationStateListener
	queue             *eventQueue
	propertyIDs       map[int32]struct{}
	animationsChanged bool
	pool              entryPool
	chain             []*TrackEntry
}

func NewAnimationState(data *AnimationStateData) *AnimationState {
	if data == nil {
		panic("data cannot be nil")
	}
	res := &AnimationState{
		Data:        data,
		TimeScale:   1,
		propertyIDs: make(map[int32]struct{}),
	}
	res.queue = &eventQueue{state: res}
	res.pool.state = res
	return res
}

// Update 推进所有轨道的时间，不修改骨骼
func (s *AnimationState) Update(delta float32) {
	delta *= s.TimeScale
	for i := range s.tracks {
		current := s.pool.get(s.tracks[i])
		if current == nil {
			continue
		}
		current.AnimationLast = current.nextAnimationLast
		current.trackLast = current.nextTrackLast

		currentDelta := delta * current.TimeScale
		if current.Delay > 0 {
			current.Delay -= currentDelta
			if current.Delay > 0 {
				continue
			}
			currentDelta = -current.Delay
			current.Delay = 0
		}

		if next := s.pool.get(current.next); next != nil {
			// 下一个 entry 的延迟已到，切换过去并保留多出来的时间
			nextTime := current.trackLast - next.Delay
			if nextTime >= 0 {
				next.Delay = 0
				next.TrackTime = nextTime + delta*next.TimeScale
				current.TrackTime += currentDelta
				current.next = noEntry
				s.setCurrent(i, next, true)
				for next.mixingFrom != noEntry {
					next.mixTime += currentDelta
					next = s.pool.get(next.mixingFrom)
				}
				continue
			}
		} else if current.trackLast >= current.TrackEnd && current.mixingFrom == noEntry {
			s.tracks[i] = noEntry
			s.queue.end(current)
			s.disposeNext(current)
			continue
		}

		if current.mixingFrom != noEntry && s.updateMixingFrom(current, delta) {
			// 整条链都混合完了
			from := s.pool.get(current.mixingFrom)
			current.mixingFrom = noEntry
			for from != nil {
				s.queue.end(from)
				from = s.pool.get(from.mixingFrom)
			}
		}

		current.TrackTime += currentDelta
	}
	s.queue.drain()
}

// updateMixingFrom 从最老的 entry 往新的方向推进，链上全部完成时返回 true
func (s *AnimationState) updateMixingFrom(entry *TrackEntry, delta float32) bool {
	chain := s.mixingChain(entry)
	finished := true
	for i := len(chain) - 2; i >= 0; i-- {
		to, from := chain[i], chain[i+1]
		from.AnimationLast = from.nextAnimationLast
		from.trackLast = from.nextTrackLast

		// mixTime > 0 保证 from 至少被应用过一次
		if to.mixTime > 0 && to.mixTime >= to.MixDuration {
			// totalAlpha 为 0 说明 from 已经没有影响了
			if from.totalAlpha == 0 || to.MixDuration == 0 {
				to.mixingFrom = from.mixingFrom
				to.interruptAlpha = from.interruptAlpha
				s.queue.end(from)
			}
			continue
		}

		from.TrackTime += delta * from.TimeScale
		to.mixTime += delta
		finished = false
	}
	return finished
}

// mixingChain entry 及其所有 mixingFrom，越往后越老
func (s *AnimationState) mixingChain(entry *TrackEntry) []*TrackEntry {
	chain := s.chain[:0]
	for entry != nil {
		chain = append(chain, entry)
		entry = s.pool.get(entry.mixingFrom)
	}
	s.chain = chain
	return chain
}

// Apply 把所有轨道应用到 skeleton，有任何轨道被应用时返回 true
func (s *AnimationState) Apply(skeleton *Skeleton) bool {
	if skeleton == nil {
		panic("skeleton cannot be nil")
	}
	if s.animationsChanged {
		s.updateTimelinesFirst()
	}

	applied := false
	for _, index := range s.tracks {
		current := s.pool.get(index)
		if current == nil || current.Delay > 0 {
			continue
		}
		applied = true

		// 先应用正在淡出的
		mix := current.Alpha
		if current.mixingFrom != noEntry {
			mix *= s.applyMixingFrom(current, skeleton)
		} else if current.TrackTime >= current.TrackEnd && current.next == noEntry {
			mix = 0 // 最后一次应用，回到 setup pose
		}

		animationLast, animationTime := current.AnimationLast, current.AnimationTime()
		timelines := current.animation.Timelines
		if mix == 1 {
			for _, timeline := range timelines {
				timeline.Apply(skeleton, animationLast, animationTime, &s.events, 1, true, false)
			}
		} else {
			firstFrame := len(current.timelinesRotation) == 0
			if firstFrame {
				current.timelinesRotation = make([]float32, len(timelines)<<1)
			}
			for i, timeline := range timelines {
				setupPose := current.timelinesFirst[i]
				switch timeline.Kind() {
				case TimelineRotate:
					s.applyRotateTimeline(timeline.(*RotateTimeline), skeleton, animationTime, mix, setupPose, current.timelinesRotation, i<<1, firstFrame)
				default:
					timeline.Apply(skeleton, animationLast, animationTime, &s.events, mix, setupPose, false)
				}
			}
		}
		s.queueEvents(current, animationTime)
		s.clearEvents()
		current.nextAnimationLast = animationTime
		current.nextTrackLast = current.TrackTime
	}

	s.queue.drain()
	return applied
}

// applyMixingFrom 从最老的 entry 开始依次应用，返回 entry 自身的混合比例
func (s *AnimationState) applyMixingFrom(entry *TrackEntry, skeleton *Skeleton) float32 {
	chain := s.mixingChain(entry)
	var mix float32
	for i := len(chain) - 2; i >= 0; i-- {
		mix = s.applyMixingFromOne(chain[i], chain[i+1], skeleton)
	}
	return mix
}

func (s *AnimationState) applyMixingFromOne(to, from *TrackEntry, skeleton *Skeleton) float32 {
	var mix float32 = 1 // mixDuration 为 0 时只用一帧撤销 from 的影响
	if to.MixDuration != 0 {
		mix = min(to.mixTime/to.MixDuration, 1)
	}

	var events *[]*Event
	if mix < from.EventThreshold {
		events = &s.events
	}
	attachments, drawOrder := mix < from.AttachmentThreshold, mix < from.DrawOrderThreshold
	animationLast, animationTime := from.AnimationLast, from.AnimationTime()
	timelines := from.animation.Timelines
	alpha := from.Alpha * to.interruptAlpha * (1 - mix)

	firstFrame := len(from.timelinesRotation) == 0
	if firstFrame {
		from.timelinesRotation = make([]float32, len(timelines)<<1)
	}

	for i, timeline := range timelines {
		setupPose := from.timelinesFirst[i]
		switch timeline.Kind() {
		case TimelineRotate:
			s.applyRotateTimeline(timeline.(*RotateTimeline), skeleton, animationTime, alpha, setupPose, from.timelinesRotation, i<<1, firstFrame)
			continue
		case TimelineAttachment:
			if !setupPose && !attachments {
				continue
			}
		case TimelineDrawOrder:
			if !setupPose && !drawOrder {
				continue
			}
		}
		timeline.Apply(skeleton, animationLast, animationTime, events, alpha, setupPose, true)
	}
	from.totalAlpha = alpha

	if to.MixDuration > 0 {
		s.queueEvents(from, animationTime)
	}
	s.clearEvents()
	from.nextAnimationLast = animationTime
	from.nextTrackLast = from.TrackTime
	return mix
}

// applyRotateTimeline 记住每个时间线的旋转方向，混合过程中经过 180 度时不会突然反向
func (s *AnimationState) applyRotateTimeline(timeline *RotateTimeline, skeleton *Skeleton, time, alpha float32, setupPose bool, rotations []float32, i int, firstFrame bool) {
	if firstFrame {
		rotations[i] = 0
	}
	if alpha == 1 {
		timeline.Apply(skeleton, 0, time, nil, 1, setupPose, false)
		return
	}

	bone := skeleton.Bones[timeline.BoneIndex]
	r2, before, last := timeline.sample(time)
	if before {
		if setupPose {
			bone.Rotation = bone.Data.Rotation
		}
		return
	}
	r2 += bone.Data.Rotation
	if !last {
		r2 = wrapDegrees(r2)
	}

	r1 := bone.Rotation
	if setupPose {
		r1 = bone.Data.Rotation
	}
	var total float32
	diff := r2 - r1
	if diff == 0 {
		total = rotations[i]
	} else {
		diff = wrapDegrees(diff)
		lastTotal, lastDiff := float32(0), diff
		if !firstFrame {
			lastTotal, lastDiff = rotations[i], rotations[i+1] // 包含整圈的累计角度, 上一次的差值
		}
		current, dir := diff > 0, lastTotal >= 0
		// 在 0 而不是 180 处检测方向反转
		if signum(lastDiff) != signum(diff) && mgl32.Abs(lastDiff) <= 90 {
			if mgl32.Abs(lastTotal) > 180 {
				lastTotal += 360 * signum(lastTotal)
			}
			dir = current
		}
		total = diff + lastTotal - mod(lastTotal, 360)
		if dir != current {
			total += 360 * signum(lastTotal)
		}
		rotations[i] = total
	}
	rotations[i+1] = diff
	r1 += total * alpha
	bone.Rotation = wrapDegrees(r1)
}

// queueEvents complete 之前的事件先入队，循环后的事件放在 complete 之后
func (s *AnimationState) queueEvents(entry *TrackEntry, animationTime float32) {
	animationStart, animationEnd := entry.AnimationStart, entry.AnimationEnd
	duration := animationEnd - animationStart
	var trackLastWrapped float32
	if duration != 0 {
		trackLastWrapped = mod(entry.trackLast, duration)
	}

	i := 0
	for ; i < len(s.events); i++ {
		event := s.events[i]
		if event.Time < trackLastWrapped {
			break
		}
		if event.Time > animationEnd {
			continue
		}
		s.queue.event(entry, event)
	}

	var complete bool
	if entry.Loop {
		complete = duration != 0 && floor(entry.TrackTime/duration) > floor(max(entry.trackLast, 0)/duration)
	} else {
		complete = animationTime >= animationEnd && entry.AnimationLast < animationEnd
	}
	if complete {
		s.queue.complete(entry)
	}

	for ; i < len(s.events); i++ {
		event := s.events[i]
		if event.Time < animationStart {
			continue
		}
		s.queue.event(entry, event)
	}
}

func (s *AnimationState) clearEvents() {
	clear(s.events)
	s.events = s.events[:0]
}

// ClearTracks 移除所有轨道，不会把骨骼恢复到 setup pose
func (s *AnimationState) ClearTracks() {
	oldDrainDisabled := s.queue.drainDisabled
	s.queue.drainDisabled = true
	for i := range s.tracks {
		s.ClearTrack(i)
	}
	s.tracks = s.tracks[:0]
	s.queue.drainDisabled = oldDrainDisabled
	s.queue.drain()
}

func (s *AnimationState) ClearTrack(trackIndex int) {
	if trackIndex < 0 || trackIndex >= len(s.tracks) {
		return
	}
	current := s.pool.get(s.tracks[trackIndex])
	if current == nil {
		return
	}
	s.queue.end(current)
	s.disposeNext(current)

	entry := current
	for entry.mixingFrom != noEntry {
		from := s.pool.get(entry.mixingFrom)
		s.queue.end(from)
		entry.mixingFrom = noEntry
		entry = from
	}

	s.tracks[current.trackIndex] = noEntry
	s.queue.drain()
}

func (s *AnimationState) setCurrent(index int, current *TrackEntry, interrupt bool) {
	from := s.expandToIndex(index)
	s.tracks[index] = current.index

	if from != nil {
		if interrupt {
			s.queue.interrupt(from)
		}
		current.mixingFrom = from.index
		current.mixTime = 0

		// 记录被打断时的混合比例
		if from.mixingFrom != noEntry && from.MixDuration > 0 {
			current.interruptAlpha *= min(1, from.mixTime/from.MixDuration)
		}
		from.timelinesRotation = from.timelinesRotation[:0]
	}

	s.queue.start(current)
}

// SetAnimation 按名字查找动画，替换轨道上的当前动画
func (s *AnimationState) SetAnimation(trackIndex int, animationName string, loop bool) (*TrackEntry, error) {
	animation := s.Data.SkeletonData.FindAnimation(animationName)
	if animation == nil {
		return nil, fmt.Errorf("set animation %q: %w", animationName, ErrUnknownAnimation)
	}
	return s.SetAnimationWith(trackIndex, animation, loop), nil
}

// SetAnimationWith 清空轨道上排队的动画，当前动画会淡出到新动画
func (s *AnimationState) SetAnimationWith(trackIndex int, animation *Animation, loop bool) *TrackEntry {
	if animation == nil {
		panic("animation cannot be nil")
	}
	interrupt := true
	current := s.expandToIndex(trackIndex)
	if current != nil {
		if current.nextTrackLast == -1 {
			// 从没应用过的 entry 不参与混合
			s.tracks[trackIndex] = current.mixingFrom
			s.queue.interrupt(current)
			s.queue.end(current)
			s.disposeNext(current)
			current = s.pool.get(current.mixingFrom)
			interrupt = false
		} else {
			s.disposeNext(current)
		}
	}
	entry := s.trackEntry(trackIndex, animation, loop, current)
	s.setCurrent(trackIndex, entry, interrupt)
	s.queue.drain()
	return entry
}

func (s *AnimationState) AddAnimation(trackIndex int, animationName string, loop bool, delay float32) (*TrackEntry, error) {
	animation := s.Data.SkeletonData.FindAnimation(animationName)
	if animation == nil {
		return nil, fmt.Errorf("add animation %q: %w", animationName, ErrUnknownAnimation)
	}
	return s.AddAnimationWith(trackIndex, animation, loop, delay), nil
}

// AddAnimationWith 排在轨道最后一个 entry 之后
// delay <= 0 时相对上一个 entry 的结束时间计算，并减去混合时长
func (s *AnimationState) AddAnimationWith(trackIndex int, animation *Animation, loop bool, delay float32) *TrackEntry {
	if animation == nil {
		panic("animation cannot be nil")
	}
	last := s.expandToIndex(trackIndex)
	if last != nil {
		for last.next != noEntry {
			last = s.pool.get(last.next)
		}
	}

	entry := s.trackEntry(trackIndex, animation, loop, last)
	if last == nil {
		s.setCurrent(trackIndex, entry, true)
		s.queue.drain()
	} else {
		last.next = entry.index
		if delay <= 0 {
			duration := last.AnimationEnd - last.AnimationStart
			if duration != 0 {
				delay += duration*(1+floor(last.TrackTime/duration)) - s.Data.Mix(last.animation, animation)
			} else {
				delay = 0
			}
		}
	}
	entry.Delay = delay
	return entry
}

// SetEmptyAnimation 用 mixDuration 把轨道淡出到 setup pose
func (s *AnimationState) SetEmptyAnimation(trackIndex int, mixDuration float32) *TrackEntry {
	entry := s.SetAnimationWith(trackIndex, emptyAnimation, false)
	entry.MixDuration = mixDuration
	entry.TrackEnd = mixDuration
	return entry
}

func (s *AnimationState) AddEmptyAnimation(trackIndex int, mixDuration, delay float32) *TrackEntry {
	if delay <= 0 {
		delay -= mixDuration
	}
	entry := s.AddAnimationWith(trackIndex, emptyAnimation, false, delay)
	entry.MixDuration = mixDuration
	entry.TrackEnd = mixDuration
	return entry
}

func (s *AnimationState) SetEmptyAnimations(mixDuration float32) {
	oldDrainDisabled := s.queue.drainDisabled
	s.queue.drainDisabled = true
	for _, index := range s.tracks {
		if current := s.pool.get(index); current != nil {
			s.SetEmptyAnimation(current.trackIndex, mixDuration)
		}
	}
	s.queue.drainDisabled = oldDrainDisabled
	s.queue.drain()
}

func (s *AnimationState) expandToIndex(index int) *TrackEntry {
	if index < 0 {
		panic(fmt.Sprintf("track index must be >= 0: %d", index))
	}
	if index < len(s.tracks) {
		return s.pool.get(s.tracks[index])
	}
	for len(s.tracks) <= index {
		s.tracks = append(s.tracks, noEntry)
	}
	return nil
}

func (s *AnimationState) trackEntry(trackIndex int, animation *Animation, loop bool, last *TrackEntry) *TrackEntry {
	entry := s.pool.obtain(trackIndex, animation, loop)
	if last != nil {
		entry.MixDuration = s.Data.Mix(last.animation, animation)
	}
	return entry
}

func (s *AnimationState) disposeNext(entry *TrackEntry) {
	next := s.pool.get(entry.next)
	for next != nil {
		s.queue.dispose(next)
		next = s.pool.get(next.next)
	}
	entry.next = noEntry
}

// updateTimelinesFirst 同一属性只有最先应用的时间线以 setup pose 为基准
func (s *AnimationState) updateTimelinesFirst() {
	s.animationsChanged = false
	clear(s.propertyIDs)
	first := true
	for _, index := range s.tracks {
		entry := s.pool.get(index)
		if entry == nil {
			continue
		}
		chain := s.mixingChain(entry)
		for i := len(chain) - 1; i >= 0; i-- {
			if first && i == len(chain)-1 {
				s.setTimelinesFirst(chain[i])
			} else {
				s.checkTimelinesUsage(chain[i])
			}
		}
		first = false
	}
}

func (s *AnimationState) setTimelinesFirst(entry *TrackEntry) {
	timelines := entry.animation.Timelines
	entry.timelinesFirst = resizeBools(entry.timelinesFirst, len(timelines))
	for i, timeline := range timelines {
		s.propertyIDs[timeline.PropertyID()] = struct{}{}
		entry.timelinesFirst[i] = true
	}
}

func (s *AnimationState) checkTimelinesUsage(entry *TrackEntry) {
	timelines := entry.animation.Timelines
	entry.timelinesFirst = resizeBools(entry.timelinesFirst, len(timelines))
	for i, timeline := range timelines {
		id := timeline.PropertyID()
		_, used := s.propertyIDs[id]
		entry.timelinesFirst[i] = !used
		s.propertyIDs[id] = struct{}{}
	}
}

func resizeBools(items []bool, size int) []bool {
	if cap(items) < size {
		return make([]bool, size)
	}
	return items[:size]
}

// Current 轨道上正在播放的 entry，轨道不存在时返回 nil
func (s *AnimationState) Current(trackIndex int) *TrackEntry {
	if trackIndex < 0 || trackIndex >= len(s.tracks) {
		return nil
	}
	return s.pool.get(s.tracks[trackIndex])
}

// Tracks 按轨道序号返回，空轨道为 nil
func (s *AnimationState) Tracks() []*TrackEntry {
	res := make([]*TrackEntry, len(s.tracks))
	for i, index := range s.tracks {
		res[i] = s.pool.get(index)
	}
	return res
}

// Entry 句柄对应的 entry 已被回收时返回 nil
func (s *AnimationState) Entry(handle EntryHandle) *TrackEntry {
	return s.pool.resolve(handle)
}

func (s *AnimationState) AddListener(listener AnimationStateListener) {
	if listener == nil {
		panic("listener cannot be nil")
	}
	s.listeners = append(s.listeners, listener)
}

// RemoveListener 复制一份新的切片，drain 中正在遍历的不受影响
func (s *AnimationState) RemoveListener(listener AnimationStateListener) {
	s.listeners = slices.DeleteFunc(slices.Clone(s.listeners), func(item AnimationStateListener) bool {
		return item == listener
	})
}

func (s *AnimationState) ClearListeners() {
	s.listeners = nil
}

// ClearListenerNotifications 丢弃还没派发的事件，不再通知 end 和 dispose 但 entry 仍会回收
func (s *AnimationState) ClearListenerNotifications() {
	s.queue.discard()
}

func (s *AnimationState) String() string {
	names := make([]string, 0, len(s.tracks))
	for _, index := range s.tracks {
		if entry := s.pool.get(index); entry != nil {
			names = append(names, entry.String())
		}
	}
	if len(names) == 0 {
		return "<none>"
	}
	return fmt.Sprint(names)
}
