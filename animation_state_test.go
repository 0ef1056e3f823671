package spine

import (
	"errors"
	"slices"
	"testing"
)

func TestSetAnimationInterruptsAppliedEntry(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 30), rotateAnimation("run", 1, 0, 60))
	skeleton := NewSkeleton(data)

	if _, err := state.SetAnimation(0, "walk", true); err != nil {
		t.Fatal(err)
	}
	tick(state, skeleton, 0)
	run, err := state.SetAnimation(0, "run", true)
	if err != nil {
		t.Fatal(err)
	}
	assertLogs(t, rec.logs, "start walk", "interrupt walk", "start run")
	if from := run.MixingFrom(); from == nil || from.Animation().Name != "walk" {
		t.Fatalf("mixing from = %v, want walk", from)
	}
}

func TestSetAnimationReplacesUnappliedEntry(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 30), rotateAnimation("run", 1, 0, 60))

	walk, _ := state.SetAnimation(0, "walk", true)
	handle := walk.Handle()
	run, _ := state.SetAnimation(0, "run", true)

	assertLogs(t, rec.logs, "start walk", "interrupt walk", "end walk", "dispose walk", "start run")
	if run.MixingFrom() != nil {
		t.Fatalf("never applied entry should not be mixed from")
	}
	if state.Entry(handle) != nil {
		t.Fatalf("handle of disposed entry still resolves")
	}
}

func TestNonLoopingCompletesOnce(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("jump", 1, 0, 0, 1, 90))
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "jump", false)
	for _, delta := range []float32{0.5, 0.6, 0.5, 0.5} {
		tick(state, skeleton, delta)
	}
	if n := rec.count("complete jump"); n != 1 {
		t.Fatalf("complete count = %d, want 1", n)
	}
	if !state.Current(0).IsComplete() {
		t.Fatalf("entry should report complete")
	}
	if !approx(skeleton.Bones[1].Rotation, 90) {
		t.Fatalf("rotation = %v, want hold last key 90", skeleton.Bones[1].Rotation)
	}
}

func TestLoopCompletesEveryWrap(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 2, 0, 0, 2, 90))
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "walk", true)
	for i := 0; i < 3; i++ {
		tick(state, skeleton, 2.5)
	}
	if n := rec.count("complete walk"); n != 3 {
		t.Fatalf("complete count = %d, want 3", n)
	}
}

func TestEventsAroundComplete(t *testing.T) {
	data := newTestData()
	walk := eventAnimation("walk", 1, data.Events[0], 0.5)
	state, rec := newTestState(data, walk)
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "walk", true)
	for i := 0; i < 6; i++ {
		tick(state, skeleton, 0.25)
	}
	assertLogs(t, rec.logs,
		"start walk",
		"event walk footstep",
		"complete walk",
		"event walk footstep",
	)
}

func TestEventThresholdWhileMixingOut(t *testing.T) {
	data := newTestData()
	walk := eventAnimation("walk", 1, data.Events[0], 0.1, 0.6)
	state, rec := newTestState(data, walk, rotateAnimation("run", 1, 0, 0))
	state.Data.SetMix("walk", "run", 1)
	skeleton := NewSkeleton(data)

	entry, _ := state.SetAnimation(0, "walk", true)
	entry.EventThreshold = 0.5
	tick(state, skeleton, 0)
	state.SetAnimation(0, "run", true)
	rec.logs = nil
	// walk 的 0.1 在 mix 为 0.2 时触发，0.6 在 mix 为 0.6 时已超过阈值
	for i := 0; i < 4; i++ {
		tick(state, skeleton, 0.2)
	}
	if n := rec.count("event walk footstep"); n != 1 {
		t.Fatalf("events while mixing out = %d, want 1 (%q)", n, rec.logs)
	}
}

func TestStaleHandleAfterMixOut(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 30), rotateAnimation("run", 1, 0, 60))
	skeleton := NewSkeleton(data)

	walk, _ := state.SetAnimation(0, "walk", true)
	handle := walk.Handle()
	tick(state, skeleton, 0.1)
	state.SetAnimation(0, "run", true)
	if state.Entry(handle) != walk {
		t.Fatalf("handle should resolve while walk is mixing out")
	}
	tick(state, skeleton, 0.1)
	tick(state, skeleton, 0.1)

	if state.Entry(handle) != nil {
		t.Fatalf("handle resolves after dispose")
	}
	if rec.count("dispose walk") != 1 {
		t.Fatalf("walk should be disposed once: %q", rec.logs)
	}
	// 对象池复用同一个槽位时旧句柄也不能解析到新的 entry
	jump := rotateAnimation("jump", 1, 0, 90)
	entry := state.AddAnimationWith(1, jump, false, 0)
	if entry.Handle() == handle || state.Entry(handle) != nil {
		t.Fatalf("reused slot must bump generation")
	}
	if !approx(skeleton.Bones[1].Rotation, 60) {
		t.Fatalf("rotation = %v, want 60", skeleton.Bones[1].Rotation)
	}
}

func TestListenerCanSetAnimationDuringDrain(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("jump", 1, 0, 0, 1, 90), rotateAnimation("walk", 1, 0, 30))
	skeleton := NewSkeleton(data)
	walk := data.FindAnimation("walk")
	state.AddListener(&ListenerFuncs{
		OnComplete: func(entry *TrackEntry) {
			if entry.Animation().Name == "jump" {
				state.SetAnimationWith(0, walk, true)
			}
		},
	})

	state.SetAnimation(0, "jump", false)
	tick(state, skeleton, 0.5)
	tick(state, skeleton, 0.6)

	assertLogs(t, rec.logs, "start jump", "complete jump", "interrupt jump", "start walk")
	if current := state.Current(0); current.Animation() != walk {
		t.Fatalf("current = %v, want walk", current)
	}
}

func TestRemoveListenerDuringDrain(t *testing.T) {
	data := newTestData()
	state, _ := newTestState(data, rotateAnimation("walk", 1, 0, 30))
	var starts int
	var self *ListenerFuncs
	self = &ListenerFuncs{
		OnStart: func(*TrackEntry) {
			starts++
			state.RemoveListener(self)
		},
	}
	state.AddListener(self)

	state.SetAnimation(0, "walk", true)
	state.SetAnimation(0, "walk", true)
	if starts != 1 {
		t.Fatalf("starts = %d, want 1", starts)
	}
}

func TestEntryListener(t *testing.T) {
	data := newTestData()
	state, _ := newTestState(data, rotateAnimation("walk", 1, 0, 30))

	var kinds []string
	entry, _ := state.SetAnimation(0, "walk", true)
	entry.Listener = &ListenerFuncs{
		OnEnd:     func(*TrackEntry) { kinds = append(kinds, "end") },
		OnDispose: func(*TrackEntry) { kinds = append(kinds, "dispose") },
	}
	state.ClearTrack(0)
	assertLogs(t, kinds, "end", "dispose")
	if state.Current(0) != nil {
		t.Fatalf("track should be empty")
	}
}

func TestCrossfadeRotationShortestPath(t *testing.T) {
	data := newTestData()
	state, _ := newTestState(data, rotateAnimation("a", 1, 0, 170), rotateAnimation("b", 1, 0, -170))
	state.Data.SetMix("a", "b", 1)
	skeleton := NewSkeleton(data)
	upper := skeleton.Bones[1]

	a, _ := state.SetAnimation(0, "a", true)
	handle := a.Handle()
	tick(state, skeleton, 0)
	if !approx(upper.Rotation, 170) {
		t.Fatalf("rotation = %v, want 170", upper.Rotation)
	}

	state.SetAnimation(0, "b", true)
	// 经过 180 而不是 0
	for _, want := range []float32{143.125, 137.5, 153.125, -170} {
		tick(state, skeleton, 0.25)
		if !approx(upper.Rotation, want) {
			t.Fatalf("mix %v: rotation = %v, want %v", state.Current(0).MixTime(), upper.Rotation, want)
		}
	}
	tick(state, skeleton, 0.25)
	if state.Entry(handle) != nil || state.Current(0).MixingFrom() != nil {
		t.Fatalf("a should be ended once the mix finished")
	}
}

func TestHigherTrackOverrides(t *testing.T) {
	data := newTestData()
	state, _ := newTestState(data, rotateAnimation("base", 1, 0, 30), rotateAnimation("aim", 1, 0, 60))
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "base", true)
	aim, _ := state.SetAnimation(1, "aim", true)
	tick(state, skeleton, 0.1)
	if !approx(skeleton.Bones[1].Rotation, 60) {
		t.Fatalf("rotation = %v, want 60", skeleton.Bones[1].Rotation)
	}

	aim.Alpha = 0.5
	tick(state, skeleton, 0.1)
	if !approx(skeleton.Bones[1].Rotation, 45) {
		t.Fatalf("rotation = %v, want 45", skeleton.Bones[1].Rotation)
	}
}

func TestAddAnimationQueuesAfterLoop(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 30), rotateAnimation("jump", 1, 0, 90))
	state.Data.SetMix("walk", "jump", 0.25)
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "walk", true)
	jump, err := state.AddAnimation(0, "jump", false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(jump.Delay, 0.75) {
		t.Fatalf("delay = %v, want 0.75", jump.Delay)
	}
	for i := 0; i < 3; i++ {
		tick(state, skeleton, 0.25)
	}
	if state.Current(0).Animation().Name != "walk" {
		t.Fatalf("jump started too early")
	}
	tick(state, skeleton, 0.25)
	current := state.Current(0)
	if current != jump || current.MixingFrom() == nil {
		t.Fatalf("current = %v, want jump mixing from walk", current)
	}
	if !approx(jump.TrackTime, 0.25) {
		t.Fatalf("track time = %v, want 0.25", jump.TrackTime)
	}
	if !slices.Contains(rec.logs, "interrupt walk") {
		t.Fatalf("walk should be interrupted: %q", rec.logs)
	}
}

func TestEmptyAnimationReturnsToSetupPose(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 90))
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "walk", true)
	tick(state, skeleton, 0.1)
	state.SetEmptyAnimation(0, 0.5)
	for i := 0; i < 10 && state.Current(0) != nil; i++ {
		tick(state, skeleton, 0.25)
	}
	if state.Current(0) != nil {
		t.Fatalf("track should be cleared after the empty animation")
	}
	if rec.count("end walk") != 1 || rec.count("end <empty>") != 1 {
		t.Fatalf("logs = %q", rec.logs)
	}
	if !approx(skeleton.Bones[1].Rotation, 0) {
		t.Fatalf("rotation = %v, want setup 0", skeleton.Bones[1].Rotation)
	}
}

func TestClearTracks(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 30), rotateAnimation("aim", 1, 0, 60))

	state.SetAnimation(0, "walk", true)
	state.SetAnimation(2, "aim", true)
	state.ClearTracks()
	if len(state.Tracks()) != 0 {
		t.Fatalf("tracks = %v", state.Tracks())
	}
	if rec.count("dispose walk") != 1 || rec.count("dispose aim") != 1 {
		t.Fatalf("logs = %q", rec.logs)
	}
	if state.String() != "<none>" {
		t.Fatalf("String() = %q", state.String())
	}
}

func TestUnknownAnimation(t *testing.T) {
	state, _ := newTestState(newTestData())
	if _, err := state.SetAnimation(0, "missing", true); !errors.Is(err, ErrUnknownAnimation) {
		t.Fatalf("err = %v", err)
	}
	if _, err := state.AddAnimation(0, "missing", true, 0); !errors.Is(err, ErrUnknownAnimation) {
		t.Fatalf("err = %v", err)
	}
}

func TestNegativeTrackIndexPanics(t *testing.T) {
	state, _ := newTestState(newTestData(), rotateAnimation("walk", 1, 0, 30))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	state.SetAnimationWith(-1, state.Data.SkeletonData.Animations[0], true)
}

func TestAnimationTime(t *testing.T) {
	state, _ := newTestState(newTestData(), rotateAnimation("walk", 2, 0, 30))
	entry, _ := state.SetAnimation(0, "walk", false)
	entry.TrackTime = 3
	if !approx(entry.AnimationTime(), 2) {
		t.Fatalf("non loop animation time = %v, want 2", entry.AnimationTime())
	}
	entry.Loop = true
	entry.AnimationStart, entry.AnimationEnd = 0.5, 1.5
	entry.TrackTime = 3.25
	if !approx(entry.AnimationTime(), 0.75) {
		t.Fatalf("loop animation time = %v, want 0.75", entry.AnimationTime())
	}
}

func TestMixFallsBackToDefault(t *testing.T) {
	data := newTestData()
	walk, run := rotateAnimation("walk", 1, 0, 30), rotateAnimation("run", 1, 0, 60)
	data.Animations = []*Animation{walk, run}
	stateData := NewAnimationStateData(data)
	stateData.DefaultMix = 0.2
	stateData.SetMix("walk", "run", 0.4)
	if got := stateData.Mix(walk, run); got != 0.4 {
		t.Fatalf("mix = %v, want 0.4", got)
	}
	if got := stateData.Mix(run, walk); got != 0.2 {
		t.Fatalf("mix = %v, want default 0.2", got)
	}
}

func TestSetEmptyAnimationsFadesAllTracks(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 30), rotateAnimation("aim", 1, 0, 60))
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "walk", true)
	state.SetAnimation(1, "aim", true)
	tick(state, skeleton, 0.1)
	state.SetEmptyAnimations(0.2)
	if rec.count("interrupt walk") != 1 || rec.count("interrupt aim") != 1 {
		t.Fatalf("logs = %q", rec.logs)
	}
	for track := 0; track < 2; track++ {
		if current := state.Current(track); current.Animation().Name != "<empty>" || current.MixingFrom() == nil {
			t.Fatalf("track %d = %v, want empty mixing from the old entry", track, current)
		}
	}
	for i := 0; i < 20 && (state.Current(0) != nil || state.Current(1) != nil); i++ {
		tick(state, skeleton, 0.1)
	}
	if state.Current(0) != nil || state.Current(1) != nil {
		t.Fatalf("tracks should clear after the empty animations")
	}
	if rec.count("dispose walk") != 1 || rec.count("dispose aim") != 1 {
		t.Fatalf("logs = %q", rec.logs)
	}
}

func TestAddEmptyAnimationAfterEnd(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 90))
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "walk", false)
	entry := state.AddEmptyAnimation(0, 0.5, 0)
	// 在 walk 结束前 0.5 开始淡出
	if !approx(entry.Delay, 0.5) || entry.MixDuration != 0.5 {
		t.Fatalf("delay %v mix %v", entry.Delay, entry.MixDuration)
	}
	tick(state, skeleton, 0.25)
	tick(state, skeleton, 0.25)
	if state.Current(0).Animation().Name != "walk" {
		t.Fatalf("current = %v, want walk", state.Current(0))
	}
	tick(state, skeleton, 0.25)
	current := state.Current(0)
	if current.Animation().Name != "<empty>" || current.MixingFrom().Animation().Name != "walk" {
		t.Fatalf("current = %v, want empty mixing from walk", current)
	}
	for i := 0; i < 20 && state.Current(0) != nil; i++ {
		tick(state, skeleton, 0.25)
	}
	if state.Current(0) != nil || rec.count("end walk") != 1 || rec.count("end <empty>") != 1 {
		t.Fatalf("logs = %q", rec.logs)
	}
}

func TestClearListenerNotificationsReleasesEntries(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("walk", 1, 0, 30), rotateAnimation("run", 1, 0, 60))

	walk, _ := state.SetAnimation(0, "walk", true)
	queued, _ := state.AddAnimation(0, "run", true, 0)
	walkHandle, queuedHandle := walk.Handle(), queued.Handle()
	state.AddListener(&ListenerFuncs{OnInterrupt: func(entry *TrackEntry) {
		state.ClearListenerNotifications()
	}})

	// walk 没应用过，直接 end，排队的 run 被 dispose，这些通知都被丢弃
	state.SetAnimation(0, "run", false)
	if rec.count("interrupt walk") != 1 || rec.count("end walk") != 0 || rec.count("start run") != 0 {
		t.Fatalf("logs = %q", rec.logs)
	}
	if state.Entry(walkHandle) != nil || state.Entry(queuedHandle) != nil {
		t.Fatalf("discarded entries should go back to the pool")
	}
	if len(state.pool.free) != 2 {
		t.Fatalf("free = %v, want 2 slots", state.pool.free)
	}
	if state.Current(0).Animation().Name != "run" {
		t.Fatalf("current = %v, want run", state.Current(0))
	}

	state.AddAnimation(0, "walk", true, 0)
	state.AddAnimation(0, "walk", true, 0)
	if len(state.pool.entries) != 3 || len(state.pool.free) != 0 {
		t.Fatalf("released slots should be reused: entries %d free %d", len(state.pool.entries), len(state.pool.free))
	}
}

func TestZeroDurationLoopNeverCompletes(t *testing.T) {
	data := newTestData()
	state, rec := newTestState(data, rotateAnimation("still", 0, 0, 10))
	skeleton := NewSkeleton(data)

	state.SetAnimation(0, "still", true)
	for i := 0; i < 5; i++ {
		tick(state, skeleton, 0.25)
	}
	if rec.count("complete still") != 0 {
		t.Fatalf("logs = %q", rec.logs)
	}
	if !approx(skeleton.Bones[1].Rotation, 10) {
		t.Fatalf("rotation = %v, want the single key 10", skeleton.Bones[1].Rotation)
	}
}
