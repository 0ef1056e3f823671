package spine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Timeline 一个属性的关键帧表
// setupPose 为 true 时以 setup pose 为基准混合，否则在当前值上混合
// mixingOut 表示所属的 TrackEntry 正在淡出
type Timeline interface {
	Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool)
	PropertyID() int32
	Kind() TimelineKind
}

type Animation struct {
	Name      string
	Timelines []Timeline
	Duration  float32
}

func NewAnimation(name string, timelines []Timeline, duration float32) *Animation {
	if timelines == nil {
		timelines = make([]Timeline, 0)
	}
	return &Animation{Name: name, Timelines: timelines, Duration: duration}
}

func (a *Animation) HasTimeline(id int32) bool {
	for _, timeline := range a.Timelines {
		if timeline.PropertyID() == id {
			return true
		}
	}
	return false
}

// Apply 循环播放时两个时间都先对 Duration 取模，events 为 nil 时不收集事件
func (a *Animation) Apply(skeleton *Skeleton, lastTime, time float32, loop bool, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	if skeleton == nil {
		panic("skeleton cannot be nil")
	}
	if loop && a.Duration != 0 {
		time = mod(time, a.Duration)
		if lastTime > 0 {
			lastTime = mod(lastTime, a.Duration)
		}
	}
	for _, timeline := range a.Timelines {
		timeline.Apply(skeleton, lastTime, time, events, alpha, setupPose, mixingOut)
	}
}

func (a *Animation) String() string {
	return a.Name
}

// binarySearch 返回第一个时间大于 target 的帧的起始下标，frames 至少两帧
func binarySearch(values []float32, target float32, step int) int {
	low := 0
	high := len(values)/step - 2
	if high == 0 {
		return step
	}
	current := int(uint(high) >> 1)
	for {
		if values[(current+1)*step] <= target {
			low = current + 1
		} else {
			high = current
		}
		if low == high {
			return (low + 1) * step
		}
		current = int(uint(low+high) >> 1)
	}
}

func propertyID(kind TimelineKind, index int) int32 {
	return int32(kind)<<24 + int32(index)
}

const (
	bezierSegments = 10
	bezierSize     = bezierSegments*2 - 1
)

// CurveTimeline 每两帧之间一个插值描述: 类型 + 9 个采样点
type CurveTimeline struct {
	curves []float32
}

func newCurveTimeline(frameCount int) CurveTimeline {
	if frameCount <= 0 {
		panic(fmt.Sprintf("frame count must be > 0: %d", frameCount))
	}
	return CurveTimeline{curves: make([]float32, (frameCount-1)*bezierSize)}
}

func (c *CurveTimeline) FrameCount() int {
	return len(c.curves)/bezierSize + 1
}

func (c *CurveTimeline) SetLinear(frameIndex int) {
	c.curves[frameIndex*bezierSize] = CurveLinear
}

func (c *CurveTimeline) SetStepped(frameIndex int) {
	c.curves[frameIndex*bezierSize] = CurveStepped
}

func (c *CurveTimeline) CurveType(frameIndex int) int {
	index := frameIndex * bezierSize
	if index == len(c.curves) {
		return CurveLinear
	}
	switch c.curves[index] {
	case CurveLinear:
		return CurveLinear
	case CurveStepped:
		return CurveStepped
	default:
		return CurveBezier
	}
}

// SetCurve 控制点是 0~1 内的比例，起点 (0,0) 终点 (1,1)，用前向差分预先采样
func (c *CurveTimeline) SetCurve(frameIndex int, cx1, cy1, cx2, cy2 float32) {
	tmpx := (-cx1*2 + cx2) * 0.03
	tmpy := (-cy1*2 + cy2) * 0.03
	dddfx := ((cx1-cx2)*3 + 1) * 0.006
	dddfy := ((cy1-cy2)*3 + 1) * 0.006
	ddfx := tmpx*2 + dddfx
	ddfy := tmpy*2 + dddfy
	dfx := cx1*0.3 + tmpx + dddfx*0.16666667
	dfy := cy1*0.3 + tmpy + dddfy*0.16666667

	i := frameIndex * bezierSize
	c.curves[i] = CurveBezier
	i++
	x, y := dfx, dfy
	for n := i + bezierSize - 1; i < n; i += 2 {
		c.curves[i] = x
		c.curves[i+1] = y
		dfx += ddfx
		dfy += ddfy
		ddfx += dddfx
		ddfy += dddfy
		x += dfx
		y += dfy
	}
}

func (c *CurveTimeline) SetCurveHandles(frameIndex int, handles [2]mgl32.Vec2) {
	c.SetCurve(frameIndex, handles[0].X(), handles[0].Y(), handles[1].X(), handles[1].Y())
}

// CurvePercent 线性时间比例转换为缓动后的比例
func (c *CurveTimeline) CurvePercent(frameIndex int, percent float32) float32 {
	percent = mgl32.Clamp(percent, 0, 1)
	curves := c.curves
	i := frameIndex * bezierSize
	switch curves[i] {
	case CurveLinear:
		return percent
	case CurveStepped:
		return 0
	}
	i++
	var x float32
	for start, n := i, i+bezierSize-1; i < n; i += 2 {
		x = curves[i]
		if x >= percent {
			var prevX, prevY float32
			if i != start {
				prevX, prevY = curves[i-2], curves[i-1]
			}
			return prevY + (curves[i+1]-prevY)*(percent-prevX)/(x-prevX)
		}
	}
	y := curves[i-1]
	return y + (1-y)*(percent-x)/(1-x) // 最后一个点是 (1,1)
}

// framePercent frame 是 binarySearch 的结果，entries 是每帧占用的 float 数
func (c *CurveTimeline) framePercent(frames []float32, frame, entries int, time float32) float32 {
	frameTime := frames[frame]
	return c.CurvePercent(frame/entries-1, 1-(time-frameTime)/(frames[frame-entries]-frameTime))
}

const (
	rotateEntries    = 2
	translateEntries = 3
)

type RotateTimeline struct {
	CurveTimeline
	BoneIndex int
	frames    []float32 // time, degrees
}

func NewRotateTimeline(frameCount int) *RotateTimeline {
	return &RotateTimeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*rotateEntries)}
}

func (t *RotateTimeline) Kind() TimelineKind { return TimelineRotate }

func (t *RotateTimeline) PropertyID() int32 { return propertyID(TimelineRotate, t.BoneIndex) }

func (t *RotateTimeline) Frames() []float32 { return t.frames }

func (t *RotateTimeline) SetFrame(frameIndex int, time, degrees float32) {
	frameIndex *= rotateEntries
	t.frames[frameIndex] = time
	t.frames[frameIndex+1] = degrees
}

// sample before 表示在第一帧之前，last 表示在最后一帧之后
func (t *RotateTimeline) sample(time float32) (r float32, before, last bool) {
	frames := t.frames
	if time < frames[0] {
		return 0, true, false
	}
	if time >= frames[len(frames)-rotateEntries] {
		return frames[len(frames)-1], false, true
	}
	frame := binarySearch(frames, time, rotateEntries)
	prevRotation := frames[frame-1]
	percent := t.framePercent(frames, frame, rotateEntries, time)
	r = wrapDegrees(frames[frame+1] - prevRotation)
	return prevRotation + r*percent, false, false
}

func (t *RotateTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	bone := skeleton.Bones[t.BoneIndex]
	r, before, last := t.sample(time)
	if before {
		if setupPose {
			bone.Rotation = bone.Data.Rotation
		}
		return
	}
	if setupPose {
		if !last {
			r = wrapDegrees(r)
		}
		bone.Rotation = bone.Data.Rotation + r*alpha
		return
	}
	bone.Rotation += wrapDegrees(bone.Data.Rotation+r-bone.Rotation) * alpha
}

// vec2Timeline translate scale shear 共用的两通道关键帧
type vec2Timeline struct {
	CurveTimeline
	BoneIndex int
	frames    []float32 // time, x, y
}

func newVec2Timeline(frameCount int) vec2Timeline {
	return vec2Timeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*translateEntries)}
}

func (t *vec2Timeline) Frames() []float32 { return t.frames }

func (t *vec2Timeline) SetFrame(frameIndex int, time, x, y float32) {
	frameIndex *= translateEntries
	t.frames[frameIndex] = time
	t.frames[frameIndex+1] = x
	t.frames[frameIndex+2] = y
}

func (t *vec2Timeline) sample(time float32) (x, y float32, before bool) {
	frames := t.frames
	if time < frames[0] {
		return 0, 0, true
	}
	if time >= frames[len(frames)-translateEntries] {
		return frames[len(frames)-2], frames[len(frames)-1], false
	}
	frame := binarySearch(frames, time, translateEntries)
	x, y = frames[frame-2], frames[frame-1]
	percent := t.framePercent(frames, frame, translateEntries, time)
	return x + (frames[frame+1]-x)*percent, y + (frames[frame+2]-y)*percent, false
}

type TranslateTimeline struct {
	vec2Timeline
}

func NewTranslateTimeline(frameCount int) *TranslateTimeline {
	return &TranslateTimeline{vec2Timeline: newVec2Timeline(frameCount)}
}

func (t *TranslateTimeline) Kind() TimelineKind { return TimelineTranslate }

func (t *TranslateTimeline) PropertyID() int32 { return propertyID(TimelineTranslate, t.BoneIndex) }

func (t *TranslateTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	bone := skeleton.Bones[t.BoneIndex]
	x, y, before := t.sample(time)
	if before {
		if setupPose {
			bone.X, bone.Y = bone.Data.X, bone.Data.Y
		}
		return
	}
	if setupPose {
		bone.X = bone.Data.X + x*alpha
		bone.Y = bone.Data.Y + y*alpha
	} else {
		bone.X += (bone.Data.X + x - bone.X) * alpha
		bone.Y += (bone.Data.Y + y - bone.Y) * alpha
	}
}

// ScaleTimeline 关键帧是 setup 缩放的倍数
type ScaleTimeline struct {
	vec2Timeline
}

func NewScaleTimeline(frameCount int) *ScaleTimeline {
	return &ScaleTimeline{vec2Timeline: newVec2Timeline(frameCount)}
}

func (t *ScaleTimeline) Kind() TimelineKind { return TimelineScale }

func (t *ScaleTimeline) PropertyID() int32 { return propertyID(TimelineScale, t.BoneIndex) }

func (t *ScaleTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	bone := skeleton.Bones[t.BoneIndex]
	x, y, before := t.sample(time)
	if before {
		if setupPose {
			bone.ScaleX, bone.ScaleY = bone.Data.ScaleX, bone.Data.ScaleY
		}
		return
	}
	x *= bone.Data.ScaleX
	y *= bone.Data.ScaleY
	if alpha == 1 {
		bone.ScaleX, bone.ScaleY = x, y
		return
	}
	bx, by := bone.ScaleX, bone.ScaleY
	if setupPose {
		bx, by = bone.Data.ScaleX, bone.Data.ScaleY
	}
	// 淡出时保留当前或 setup 的符号，否则使用关键帧的符号
	if mixingOut {
		x = mgl32.Abs(x) * signum(bx)
		y = mgl32.Abs(y) * signum(by)
	} else {
		bx = mgl32.Abs(bx) * signum(x)
		by = mgl32.Abs(by) * signum(y)
	}
	bone.ScaleX = bx + (x-bx)*alpha
	bone.ScaleY = by + (y-by)*alpha
}

type ShearTimeline struct {
	vec2Timeline
}

func NewShearTimeline(frameCount int) *ShearTimeline {
	return &ShearTimeline{vec2Timeline: newVec2Timeline(frameCount)}
}

func (t *ShearTimeline) Kind() TimelineKind { return TimelineShear }

func (t *ShearTimeline) PropertyID() int32 { return propertyID(TimelineShear, t.BoneIndex) }

func (t *ShearTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	bone := skeleton.Bones[t.BoneIndex]
	x, y, before := t.sample(time)
	if before {
		if setupPose {
			bone.ShearX, bone.ShearY = bone.Data.ShearX, bone.Data.ShearY
		}
		return
	}
	if setupPose {
		bone.ShearX = bone.Data.ShearX + x*alpha
		bone.ShearY = bone.Data.ShearY + y*alpha
	} else {
		bone.ShearX += (bone.Data.ShearX + x - bone.ShearX) * alpha
		bone.ShearY += (bone.Data.ShearY + y - bone.ShearY) * alpha
	}
}
