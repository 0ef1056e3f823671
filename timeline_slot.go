package spine

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	colorEntries    = 5
	twoColorEntries = 8
)

type ColorTimeline struct {
	CurveTimeline
	SlotIndex int
	frames    []float32 // time, r, g, b, a
}

func NewColorTimeline(frameCount int) *ColorTimeline {
	return &ColorTimeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*colorEntries)}
}

func (t *ColorTimeline) Kind() TimelineKind { return TimelineColor }

func (t *ColorTimeline) PropertyID() int32 { return propertyID(TimelineColor, t.SlotIndex) }

func (t *ColorTimeline) Frames() []float32 { return t.frames }

func (t *ColorTimeline) SetFrame(frameIndex int, time float32, color mgl32.Vec4) {
	frameIndex *= colorEntries
	t.frames[frameIndex] = time
	copy(t.frames[frameIndex+1:frameIndex+colorEntries], color[:])
}

func (t *ColorTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	slot := skeleton.Slots[t.SlotIndex]
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			slot.Color = slot.Data.Color
		}
		return
	}
	var color mgl32.Vec4
	if time >= frames[len(frames)-colorEntries] {
		copy(color[:], frames[len(frames)-4:])
	} else {
		frame := binarySearch(frames, time, colorEntries)
		var prev, next mgl32.Vec4
		copy(prev[:], frames[frame-4:frame])
		copy(next[:], frames[frame+1:frame+colorEntries])
		color = Vec4Lerp(prev, next, t.framePercent(frames, frame, colorEntries, time))
	}
	if alpha == 1 {
		slot.Color = color
		return
	}
	if setupPose {
		slot.Color = slot.Data.Color
	}
	slot.Color = Vec4Lerp(slot.Color, color, alpha)
}

// TwoColorTimeline 同时驱动 light 与 dark 两种颜色，dark 没有 alpha
type TwoColorTimeline struct {
	CurveTimeline
	SlotIndex int
	frames    []float32 // time, r, g, b, a, r2, g2, b2
}

func NewTwoColorTimeline(frameCount int) *TwoColorTimeline {
	return &TwoColorTimeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*twoColorEntries)}
}

func (t *TwoColorTimeline) Kind() TimelineKind { return TimelineTwoColor }

func (t *TwoColorTimeline) PropertyID() int32 { return propertyID(TimelineTwoColor, t.SlotIndex) }

func (t *TwoColorTimeline) Frames() []float32 { return t.frames }

func (t *TwoColorTimeline) SetFrame(frameIndex int, time float32, light, dark mgl32.Vec4) {
	frameIndex *= twoColorEntries
	t.frames[frameIndex] = time
	copy(t.frames[frameIndex+1:frameIndex+5], light[:])
	copy(t.frames[frameIndex+5:frameIndex+twoColorEntries], dark[:3])
}

func twoColorAt(frames []float32, start int) (light, dark mgl32.Vec4) {
	copy(light[:], frames[start:start+4])
	copy(dark[:3], frames[start+4:start+7])
	dark[3] = 1
	return light, dark
}

func (t *TwoColorTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	slot := skeleton.Slots[t.SlotIndex]
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			slot.Color = slot.Data.Color
			slot.DarkColor = slot.Data.DarkColor
		}
		return
	}
	var light, dark mgl32.Vec4
	if time >= frames[len(frames)-twoColorEntries] {
		light, dark = twoColorAt(frames, len(frames)-7)
	} else {
		frame := binarySearch(frames, time, twoColorEntries)
		percent := t.framePercent(frames, frame, twoColorEntries, time)
		prevLight, prevDark := twoColorAt(frames, frame-7)
		nextLight, nextDark := twoColorAt(frames, frame+1)
		light = Vec4Lerp(prevLight, nextLight, percent)
		dark = Vec4Lerp(prevDark, nextDark, percent)
	}
	if alpha == 1 {
		slot.Color = light
		slot.DarkColor = dark
		return
	}
	if setupPose {
		slot.Color = slot.Data.Color
		slot.DarkColor = slot.Data.DarkColor
	}
	slot.Color = Vec4Lerp(slot.Color, light, alpha)
	darkAlpha := slot.DarkColor[3]
	slot.DarkColor = Vec4Lerp(slot.DarkColor, dark, alpha)
	slot.DarkColor[3] = darkAlpha
}

// AttachmentTimeline 离散切换附件，空名称表示清空
type AttachmentTimeline struct {
	SlotIndex       int
	frames          []float32
	AttachmentNames []string
}

func NewAttachmentTimeline(frameCount int) *AttachmentTimeline {
	return &AttachmentTimeline{frames: make([]float32, frameCount), AttachmentNames: make([]string, frameCount)}
}

func (t *AttachmentTimeline) Kind() TimelineKind { return TimelineAttachment }

func (t *AttachmentTimeline) PropertyID() int32 { return propertyID(TimelineAttachment, t.SlotIndex) }

func (t *AttachmentTimeline) Frames() []float32 { return t.frames }

func (t *AttachmentTimeline) FrameCount() int { return len(t.frames) }

func (t *AttachmentTimeline) SetFrame(frameIndex int, time float32, attachmentName string) {
	t.frames[frameIndex] = time
	t.AttachmentNames[frameIndex] = attachmentName
}

func (t *AttachmentTimeline) setAttachment(skeleton *Skeleton, slot *Slot, name string) {
	if name == "" {
		slot.SetAttachment(nil)
		return
	}
	slot.SetAttachment(skeleton.Attachment(t.SlotIndex, name))
}

func (t *AttachmentTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	slot := skeleton.Slots[t.SlotIndex]
	if mixingOut && setupPose {
		t.setAttachment(skeleton, slot, slot.Data.AttachmentName)
		return
	}
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			t.setAttachment(skeleton, slot, slot.Data.AttachmentName)
		}
		return
	}
	frameIndex := len(frames) - 1
	if time < frames[frameIndex] {
		frameIndex = binarySearch(frames, time, 1) - 1
	}
	t.setAttachment(skeleton, slot, t.AttachmentNames[frameIndex])
}

// DeformTimeline 无权重网格存储局部顶点，有权重网格存储相对 setup 的偏移
type DeformTimeline struct {
	CurveTimeline
	SlotIndex     int
	FrameVertices [][]float32
	attachment    vertexAttachment
	frames        []float32
}

func NewDeformTimeline(frameCount int, attachment Attachment) *DeformTimeline {
	target, ok := attachment.(vertexAttachment)
	if !ok {
		panic("deform timeline requires a vertex attachment")
	}
	return &DeformTimeline{
		CurveTimeline: newCurveTimeline(frameCount),
		attachment:    target,
		frames:        make([]float32, frameCount),
		FrameVertices: make([][]float32, frameCount),
	}
}

func (t *DeformTimeline) Kind() TimelineKind { return TimelineDeform }

// PropertyID 同一个 slot 上不同附件的 deform 互不冲突
func (t *DeformTimeline) PropertyID() int32 {
	return int32(TimelineDeform)<<27 + t.attachment.vertexData().ID<<16 + int32(t.SlotIndex)
}

func (t *DeformTimeline) Frames() []float32 { return t.frames }

func (t *DeformTimeline) Attachment() Attachment { return t.attachment }

func (t *DeformTimeline) SetFrame(frameIndex int, time float32, vertices []float32) {
	t.frames[frameIndex] = time
	t.FrameVertices[frameIndex] = vertices
}

func (t *DeformTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	slot := skeleton.Slots[t.SlotIndex]
	target, ok := slot.attachment.(vertexAttachment)
	if !ok || !target.applyDeform(t.attachment) {
		return
	}
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			slot.Deform = slot.Deform[:0]
		}
		return
	}
	vertexCount := len(t.FrameVertices[0])
	if len(slot.Deform) != vertexCount && !setupPose {
		alpha = 1 // 没有初始化的顶点不能参与混合
	}
	slot.Deform = grow(slot.Deform, vertexCount)
	vertices := slot.Deform
	data := target.vertexData()
	weighted := len(data.Bones) > 0

	var prev, next []float32
	var percent float32
	if time >= frames[len(frames)-1] {
		prev = t.FrameVertices[len(frames)-1]
	} else {
		frame := binarySearch(frames, time, 1)
		prev, next = t.FrameVertices[frame-1], t.FrameVertices[frame]
		percent = t.framePercent(frames, frame, 1, time)
	}
	for i := 0; i < vertexCount; i++ {
		value := prev[i]
		if next != nil {
			value += (next[i] - value) * percent
		}
		switch {
		case alpha == 1:
			vertices[i] = value
		case setupPose && weighted:
			vertices[i] = value * alpha
		case setupPose:
			setup := data.Vertices[i]
			vertices[i] = setup + (value-setup)*alpha
		default:
			vertices[i] += (value - vertices[i]) * alpha
		}
	}
}

// DrawOrderTimeline 每帧保存 drawOrder 到 slot 下标的映射，nil 表示 setup 顺序
type DrawOrderTimeline struct {
	frames     []float32
	DrawOrders [][]int
}

func NewDrawOrderTimeline(frameCount int) *DrawOrderTimeline {
	return &DrawOrderTimeline{frames: make([]float32, frameCount), DrawOrders: make([][]int, frameCount)}
}

func (t *DrawOrderTimeline) Kind() TimelineKind { return TimelineDrawOrder }

func (t *DrawOrderTimeline) PropertyID() int32 { return propertyID(TimelineDrawOrder, 0) }

func (t *DrawOrderTimeline) Frames() []float32 { return t.frames }

func (t *DrawOrderTimeline) FrameCount() int { return len(t.frames) }

func (t *DrawOrderTimeline) SetFrame(frameIndex int, time float32, drawOrder []int) {
	t.frames[frameIndex] = time
	t.DrawOrders[frameIndex] = drawOrder
}

func (t *DrawOrderTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	if mixingOut && setupPose {
		copy(skeleton.DrawOrder, skeleton.Slots)
		return
	}
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			copy(skeleton.DrawOrder, skeleton.Slots)
		}
		return
	}
	frame := len(frames) - 1
	if time < frames[frame] {
		frame = binarySearch(frames, time, 1) - 1
	}
	drawOrder := t.DrawOrders[frame]
	if drawOrder == nil {
		copy(skeleton.DrawOrder, skeleton.Slots)
		return
	}
	for i, idx := range drawOrder {
		skeleton.DrawOrder[i] = skeleton.Slots[idx]
	}
}

// EventTimeline 触发 (lastTime, time] 内的事件，lastTime > time 说明循环回绕
type EventTimeline struct {
	frames []float32
	Events []*Event
}

func NewEventTimeline(frameCount int) *EventTimeline {
	return &EventTimeline{frames: make([]float32, frameCount), Events: make([]*Event, frameCount)}
}

func (t *EventTimeline) Kind() TimelineKind { return TimelineEvent }

func (t *EventTimeline) PropertyID() int32 { return propertyID(TimelineEvent, 0) }

func (t *EventTimeline) Frames() []float32 { return t.frames }

func (t *EventTimeline) FrameCount() int { return len(t.frames) }

func (t *EventTimeline) SetFrame(frameIndex int, event *Event) {
	t.frames[frameIndex] = event.Time
	t.Events[frameIndex] = event
}

func (t *EventTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	if events == nil {
		return
	}
	frames := t.frames
	frameCount := len(frames)
	if lastTime > time {
		t.Apply(skeleton, lastTime, math.MaxFloat32, events, alpha, setupPose, mixingOut)
		lastTime = -1
	} else if lastTime >= frames[frameCount-1] {
		return
	}
	if time < frames[0] {
		return
	}
	frame := 0
	if lastTime >= frames[0] {
		frame = binarySearch(frames, lastTime, 1)
		frameTime := frames[frame]
		for frame > 0 && frames[frame-1] == frameTime { // 同一时间的多个事件全部触发
			frame--
		}
	}
	for ; frame < frameCount && time >= frames[frame]; frame++ {
		*events = append(*events, t.Events[frame])
	}
}
