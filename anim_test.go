package spine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBinarySearch(t *testing.T) {
	frames := []float32{0, 10, 1, 20, 2, 30}
	cases := []struct {
		target float32
		want   int
	}{
		{0, 2},
		{0.5, 2},
		{1, 4},
		{1.5, 4},
	}
	for _, c := range cases {
		if got := binarySearch(frames, c.target, 2); got != c.want {
			t.Errorf("binarySearch(%v) = %d, want %d", c.target, got, c.want)
		}
	}
	if got := binarySearch([]float32{0, 1}, 0.5, 1); got != 1 {
		t.Errorf("two frames = %d, want 1", got)
	}
}

func TestRotateTimelineBeforeFirstKey(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	upper := skeleton.Bones[1]
	anim := rotateAnimation("late", 2, 1, 45, 2, 90)

	upper.Rotation = 33
	anim.Apply(skeleton, 0, 0.5, false, nil, 1, false, false)
	if upper.Rotation != 33 {
		t.Fatalf("rotation = %v, want untouched 33", upper.Rotation)
	}
	anim.Apply(skeleton, 0, 0.5, false, nil, 1, true, false)
	if upper.Rotation != 0 {
		t.Fatalf("rotation = %v, want setup 0", upper.Rotation)
	}
}

func TestRotateTimelineInterpolate(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	upper := skeleton.Bones[1]
	anim := rotateAnimation("swing", 1, 0, 0, 1, 90)

	for _, c := range []struct{ time, want float32 }{{0.5, 45}, {1, 90}, {3, 90}} {
		anim.Apply(skeleton, 0, c.time, false, nil, 1, true, false)
		if !approx(upper.Rotation, c.want) {
			t.Errorf("time %v: rotation = %v, want %v", c.time, upper.Rotation, c.want)
		}
	}

	// alpha 0.5 在当前值 10 和关键帧 45 之间
	upper.Rotation = 10
	anim.Apply(skeleton, 0, 0.5, false, nil, 0.5, false, false)
	if !approx(upper.Rotation, 27.5) {
		t.Fatalf("rotation = %v, want 27.5", upper.Rotation)
	}
}

func TestRotateTimelineWrapsThrough180(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	upper := skeleton.Bones[1]
	anim := rotateAnimation("turn", 1, 0, 170, 1, -170)

	anim.Apply(skeleton, 0, 0.25, false, nil, 1, true, false)
	if !approx(upper.Rotation, 175) {
		t.Fatalf("rotation = %v, want 175", upper.Rotation)
	}
	anim.Apply(skeleton, 0, 0.75, false, nil, 1, true, false)
	if !approx(upper.Rotation, -175) {
		t.Fatalf("rotation = %v, want -175", upper.Rotation)
	}
}

func TestCurveTypes(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	upper := skeleton.Bones[1]
	timeline := NewTranslateTimeline(2)
	timeline.BoneIndex = 1
	timeline.SetFrame(0, 0, 0, 0)
	timeline.SetFrame(1, 1, 10, 20)

	timeline.SetStepped(0)
	if timeline.CurveType(0) != CurveStepped {
		t.Fatalf("curve type = %d", timeline.CurveType(0))
	}
	timeline.Apply(skeleton, 0, 0.9, nil, 1, true, false)
	if upper.X != 0 || upper.Y != 0 {
		t.Fatalf("stepped = (%v, %v), want (0, 0)", upper.X, upper.Y)
	}

	// 控制点在对角线上的贝塞尔近似线性
	timeline.SetCurveHandles(0, [2]mgl32.Vec2{{0.25, 0.25}, {0.75, 0.75}})
	if timeline.CurveType(0) != CurveBezier {
		t.Fatalf("curve type = %d", timeline.CurveType(0))
	}
	timeline.Apply(skeleton, 0, 0.5, nil, 1, true, false)
	if mgl32.Abs(upper.X-5) > 0.05 || mgl32.Abs(upper.Y-10) > 0.1 {
		t.Fatalf("bezier = (%v, %v), want about (5, 10)", upper.X, upper.Y)
	}

	// 先快后慢
	timeline.SetCurve(0, 0, 1, 0, 1)
	timeline.Apply(skeleton, 0, 0.5, nil, 1, true, false)
	if upper.X <= 5 {
		t.Fatalf("ease out = %v, want > 5", upper.X)
	}

	timeline.SetLinear(0)
	timeline.Apply(skeleton, 0, 0.5, nil, 1, true, false)
	if !approx(upper.X, 5) || !approx(upper.Y, 10) {
		t.Fatalf("linear = (%v, %v)", upper.X, upper.Y)
	}
	if timeline.CurveType(1) != CurveLinear {
		t.Fatalf("last frame has no curve")
	}
}

func TestScaleTimelineMultipliesSetup(t *testing.T) {
	data := newTestData()
	data.Bones[1].ScaleX = 2
	skeleton := NewSkeleton(data)
	upper := skeleton.Bones[1]
	timeline := NewScaleTimeline(1)
	timeline.BoneIndex = 1
	timeline.SetFrame(0, 0, 3, -1)

	timeline.Apply(skeleton, 0, 0, nil, 1, true, false)
	if upper.ScaleX != 6 || upper.ScaleY != -1 {
		t.Fatalf("scale = (%v, %v), want (6, -1)", upper.ScaleX, upper.ScaleY)
	}
}

func TestEventTimelineWrap(t *testing.T) {
	data := newTestData()
	skeleton := NewSkeleton(data)
	anim := eventAnimation("walk", 1, data.Events[0], 0.2, 0.8)

	var events []*Event
	anim.Apply(skeleton, 0.7, 1.3, true, &events, 1, false, false)
	if len(events) != 2 || events[0].Time != 0.8 || events[1].Time != 0.2 {
		t.Fatalf("events = %v, want 0.8 then 0.2", eventTimes(events))
	}

	events = events[:0]
	anim.Apply(skeleton, 0.2, 0.5, false, &events, 1, false, false)
	if len(events) != 0 {
		t.Fatalf("lastTime is exclusive: %v", eventTimes(events))
	}

	anim.Apply(skeleton, 0.3, 0.5, false, nil, 1, false, false)
}

func TestEventTimelineSameTime(t *testing.T) {
	data := newTestData()
	skeleton := NewSkeleton(data)
	anim := eventAnimation("stomp", 1, data.Events[0], 0.1, 0.5, 0.5)

	var events []*Event
	anim.Apply(skeleton, 0.1, 0.6, false, &events, 1, false, false)
	if len(events) != 2 {
		t.Fatalf("events = %v, want both at 0.5", eventTimes(events))
	}
}

func eventTimes(events []*Event) []float32 {
	res := make([]float32, 0, len(events))
	for _, event := range events {
		res = append(res, event.Time)
	}
	return res
}

func TestDrawOrderTimeline(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	timeline := NewDrawOrderTimeline(2)
	timeline.SetFrame(0, 0, []int{1, 0})
	timeline.SetFrame(1, 1, nil)

	timeline.Apply(skeleton, 0, 0.5, nil, 1, false, false)
	if skeleton.DrawOrder[0] != skeleton.Slots[1] || skeleton.DrawOrder[1] != skeleton.Slots[0] {
		t.Fatalf("draw order = %v", skeleton.DrawOrder)
	}
	timeline.Apply(skeleton, 0, 1.5, nil, 1, false, false)
	if skeleton.DrawOrder[0] != skeleton.Slots[0] {
		t.Fatalf("nil key should restore setup order: %v", skeleton.DrawOrder)
	}

	timeline.Apply(skeleton, 0, 0.5, nil, 1, false, false)
	timeline.Apply(skeleton, 0, 0.5, nil, 1, true, true)
	if skeleton.DrawOrder[0] != skeleton.Slots[0] {
		t.Fatalf("mixing out from setup should restore setup order: %v", skeleton.DrawOrder)
	}
}

func TestAttachmentTimeline(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	body := skeleton.Slots[0]
	timeline := NewAttachmentTimeline(3)
	timeline.SlotIndex = 0
	timeline.SetFrame(0, 0.5, "point")
	timeline.SetFrame(1, 1, "")
	timeline.SetFrame(2, 2, "box")

	timeline.Apply(skeleton, 0, 0.2, nil, 1, false, false)
	if body.Attachment().Name() != "box" {
		t.Fatalf("before first key = %v", body.Attachment())
	}
	timeline.Apply(skeleton, 0, 0.7, nil, 1, false, false)
	if body.Attachment().Name() != "point" {
		t.Fatalf("attachment = %v, want point", body.Attachment())
	}
	timeline.Apply(skeleton, 0, 1.5, nil, 1, false, false)
	if body.Attachment() != nil {
		t.Fatalf("empty key should clear attachment")
	}
	timeline.Apply(skeleton, 0, 0.2, nil, 1, true, false)
	if body.Attachment().Name() != "box" {
		t.Fatalf("setup pose = %v, want box", body.Attachment())
	}
}

func TestColorTimeline(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	body := skeleton.Slots[0]
	timeline := NewColorTimeline(2)
	timeline.SlotIndex = 0
	timeline.SetFrame(0, 0, mgl32.Vec4{1, 0, 0, 1})
	timeline.SetFrame(1, 1, mgl32.Vec4{0, 0, 1, 0})

	timeline.Apply(skeleton, 0, 0.5, nil, 1, true, false)
	want := mgl32.Vec4{0.5, 0, 0.5, 0.5}
	if !body.Color.ApproxEqualThreshold(want, 1e-4) {
		t.Fatalf("color = %v, want %v", body.Color, want)
	}
}

func TestPropertyIDsAreDistinct(t *testing.T) {
	rotate := NewRotateTimeline(1)
	rotate.BoneIndex = 1
	translate := NewTranslateTimeline(1)
	translate.BoneIndex = 1
	other := NewRotateTimeline(1)
	other.BoneIndex = 2
	ids := map[int32]bool{
		rotate.PropertyID():    true,
		translate.PropertyID(): true,
		other.PropertyID():     true,
	}
	if len(ids) != 3 {
		t.Fatalf("property ids collide: %v", ids)
	}
	anim := NewAnimation("a", []Timeline{rotate}, 1)
	if !anim.HasTimeline(rotate.PropertyID()) || anim.HasTimeline(translate.PropertyID()) {
		t.Fatalf("HasTimeline mismatch")
	}
}

func TestAnimationApplyNilSkeletonPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewAnimation("empty", nil, 0).Apply(nil, 0, 0, false, nil, 1, true, false)
}
