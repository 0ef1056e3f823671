package spine

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// newTestData root 下挂一条两节的手臂和一个 IK 目标
//
//	root(0) ── upper(1) ── lower(2)
//	       └── target(3)
func newTestData() *SkeletonData {
	root := NewBoneData(0, "root", -1)
	upper := NewBoneData(1, "upper", 0)
	upper.Length = 10
	lower := NewBoneData(2, "lower", 1)
	lower.X, lower.Length = 10, 10
	target := NewBoneData(3, "target", 0)
	target.X, target.Y = 10, 10

	body := NewSlotData(0, "body", 0)
	body.AttachmentName = "box"
	arm := NewSlotData(1, "arm", 1)

	skin := NewSkin("default")
	box := NewRegionAttachment("box")
	box.Width, box.Height = 2, 2
	box.UpdateOffset()
	skin.SetAttachment(0, "box", box)
	skin.SetAttachment(0, "point", NewPointAttachment("point"))

	return &SkeletonData{
		Name:        "test",
		Bones:       []*BoneData{root, upper, lower, target},
		Slots:       []*SlotData{body, arm},
		Skins:       []*Skin{skin},
		DefaultSkin: skin,
		Events:      []*EventData{{Name: "footstep", Int: 1}},
	}
}

// rotateAnimation keys 依次是 time, degrees，作用于 upper
func rotateAnimation(name string, duration float32, keys ...float32) *Animation {
	timeline := NewRotateTimeline(len(keys) / 2)
	timeline.BoneIndex = 1
	for i := 0; i < len(keys); i += 2 {
		timeline.SetFrame(i/2, keys[i], keys[i+1])
	}
	return NewAnimation(name, []Timeline{timeline}, duration)
}

func eventAnimation(name string, duration float32, data *EventData, times ...float32) *Animation {
	timeline := NewEventTimeline(len(times))
	for i, time := range times {
		timeline.SetFrame(i, NewEvent(time, data))
	}
	return NewAnimation(name, []Timeline{timeline}, duration)
}

func newTestState(data *SkeletonData, animations ...*Animation) (*AnimationState, *recorder) {
	data.Animations = append(data.Animations, animations...)
	state := NewAnimationState(NewAnimationStateData(data))
	rec := &recorder{}
	state.AddListener(rec)
	return state, rec
}

// tick 按 viewer 的顺序推进一帧
func tick(state *AnimationState, skeleton *Skeleton, delta float32) {
	state.Update(delta)
	state.Apply(skeleton)
	skeleton.UpdateWorldTransform()
}

type recorder struct {
	logs []string
}

func (r *recorder) add(kind string, entry *TrackEntry) {
	r.logs = append(r.logs, fmt.Sprintf("%s %s", kind, entry))
}

func (r *recorder) Start(entry *TrackEntry)     { r.add("start", entry) }
func (r *recorder) Interrupt(entry *TrackEntry) { r.add("interrupt", entry) }
func (r *recorder) End(entry *TrackEntry)       { r.add("end", entry) }
func (r *recorder) Dispose(entry *TrackEntry)   { r.add("dispose", entry) }
func (r *recorder) Complete(entry *TrackEntry)  { r.add("complete", entry) }

func (r *recorder) Event(entry *TrackEntry, event *Event) {
	r.logs = append(r.logs, fmt.Sprintf("event %s %s", entry, event.Data.Name))
}

func (r *recorder) count(log string) int {
	res := 0
	for _, item := range r.logs {
		if item == log {
			res++
		}
	}
	return res
}

func approx(a, b float32) bool {
	return mgl32.Abs(a-b) < 1e-3
}

func assertLogs(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("logs = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("logs[%d] = %q, want %q (all %q)", i, got[i], want[i], got)
		}
	}
}
