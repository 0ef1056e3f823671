package spine

const (
	ikEntries        = 5
	transformEntries = 5
	pathEntries      = 2
	pathMixEntries   = 3
)

// IkConstraintTimeline mix 可以插值，bend compress stretch 取前一帧的值
type IkConstraintTimeline struct {
	CurveTimeline
	IkConstraintIndex int
	frames            []float32 // time, mix, bendDirection, compress, stretch
}

func NewIkConstraintTimeline(frameCount int) *IkConstraintTimeline {
	return &IkConstraintTimeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*ikEntries)}
}

func (t *IkConstraintTimeline) Kind() TimelineKind { return TimelineIkConstraint }

func (t *IkConstraintTimeline) PropertyID() int32 {
	return propertyID(TimelineIkConstraint, t.IkConstraintIndex)
}

func (t *IkConstraintTimeline) Frames() []float32 { return t.frames }

func (t *IkConstraintTimeline) SetFrame(frameIndex int, time, mix float32, bendDirection int, compress, stretch bool) {
	frameIndex *= ikEntries
	t.frames[frameIndex] = time
	t.frames[frameIndex+1] = mix
	t.frames[frameIndex+2] = float32(bendDirection)
	t.frames[frameIndex+3] = boolFloat(compress)
	t.frames[frameIndex+4] = boolFloat(stretch)
}

func (t *IkConstraintTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	constraint := skeleton.IkConstraints[t.IkConstraintIndex]
	data := constraint.Data
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			constraint.SetToSetupPose()
		}
		return
	}
	var mix float32
	var discrete int // 离散值所在帧的起始下标
	if time >= frames[len(frames)-ikEntries] {
		discrete = len(frames) - ikEntries
		mix = frames[discrete+1]
	} else {
		frame := binarySearch(frames, time, ikEntries)
		discrete = frame - ikEntries
		mix = frames[discrete+1]
		mix += (frames[frame+1] - mix) * t.framePercent(frames, frame, ikEntries, time)
	}
	if setupPose {
		constraint.Mix = data.Mix + (mix-data.Mix)*alpha
		if mixingOut {
			constraint.BendDirection = data.BendDirection
			constraint.Compress = data.Compress
			constraint.Stretch = data.Stretch
			return
		}
	} else {
		constraint.Mix += (mix - constraint.Mix) * alpha
		if mixingOut {
			return
		}
	}
	constraint.BendDirection = int(frames[discrete+2])
	constraint.Compress = frames[discrete+3] != 0
	constraint.Stretch = frames[discrete+4] != 0
}

func boolFloat(v bool) float32 {
	if v {
		return 1
	}
	return 0
}

type TransformConstraintTimeline struct {
	CurveTimeline
	TransformConstraintIndex int
	frames                   []float32 // time, rotate, translate, scale, shear
}

func NewTransformConstraintTimeline(frameCount int) *TransformConstraintTimeline {
	return &TransformConstraintTimeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*transformEntries)}
}

func (t *TransformConstraintTimeline) Kind() TimelineKind { return TimelineTransformConstraint }

func (t *TransformConstraintTimeline) PropertyID() int32 {
	return propertyID(TimelineTransformConstraint, t.TransformConstraintIndex)
}

func (t *TransformConstraintTimeline) Frames() []float32 { return t.frames }

func (t *TransformConstraintTimeline) SetFrame(frameIndex int, time, rotateMix, translateMix, scaleMix, shearMix float32) {
	frameIndex *= transformEntries
	t.frames[frameIndex] = time
	t.frames[frameIndex+1] = rotateMix
	t.frames[frameIndex+2] = translateMix
	t.frames[frameIndex+3] = scaleMix
	t.frames[frameIndex+4] = shearMix
}

func (t *TransformConstraintTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	constraint := skeleton.TransformConstraints[t.TransformConstraintIndex]
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			constraint.SetToSetupPose()
		}
		return
	}
	var mixes [4]float32
	if time >= frames[len(frames)-transformEntries] {
		copy(mixes[:], frames[len(frames)-4:])
	} else {
		frame := binarySearch(frames, time, transformEntries)
		percent := t.framePercent(frames, frame, transformEntries, time)
		for i := range mixes {
			prev := frames[frame-4+i]
			mixes[i] = prev + (frames[frame+1+i]-prev)*percent
		}
	}
	if setupPose {
		data := constraint.Data
		constraint.RotateMix = data.RotateMix + (mixes[0]-data.RotateMix)*alpha
		constraint.TranslateMix = data.TranslateMix + (mixes[1]-data.TranslateMix)*alpha
		constraint.ScaleMix = data.ScaleMix + (mixes[2]-data.ScaleMix)*alpha
		constraint.ShearMix = data.ShearMix + (mixes[3]-data.ShearMix)*alpha
		return
	}
	constraint.RotateMix += (mixes[0] - constraint.RotateMix) * alpha
	constraint.TranslateMix += (mixes[1] - constraint.TranslateMix) * alpha
	constraint.ScaleMix += (mixes[2] - constraint.ScaleMix) * alpha
	constraint.ShearMix += (mixes[3] - constraint.ShearMix) * alpha
}

// pathValueTimeline position 与 spacing 共用的单值关键帧
type pathValueTimeline struct {
	CurveTimeline
	PathConstraintIndex int
	frames              []float32 // time, value
}

func newPathValueTimeline(frameCount int) pathValueTimeline {
	return pathValueTimeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*pathEntries)}
}

func (t *pathValueTimeline) Frames() []float32 { return t.frames }

func (t *pathValueTimeline) SetFrame(frameIndex int, time, value float32) {
	frameIndex *= pathEntries
	t.frames[frameIndex] = time
	t.frames[frameIndex+1] = value
}

// apply 以 setup 或 current 为基准混合到 *value
func (t *pathValueTimeline) apply(value *float32, setup, time, alpha float32, setupPose bool) {
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			*value = setup
		}
		return
	}
	var target float32
	if time >= frames[len(frames)-pathEntries] {
		target = frames[len(frames)-1]
	} else {
		frame := binarySearch(frames, time, pathEntries)
		target = frames[frame-1]
		target += (frames[frame+1] - target) * t.framePercent(frames, frame, pathEntries, time)
	}
	if setupPose {
		*value = setup + (target-setup)*alpha
	} else {
		*value += (target - *value) * alpha
	}
}

type PathConstraintPositionTimeline struct {
	pathValueTimeline
}

func NewPathConstraintPositionTimeline(frameCount int) *PathConstraintPositionTimeline {
	return &PathConstraintPositionTimeline{pathValueTimeline: newPathValueTimeline(frameCount)}
}

func (t *PathConstraintPositionTimeline) Kind() TimelineKind { return TimelinePathConstraintPosition }

func (t *PathConstraintPositionTimeline) PropertyID() int32 {
	return propertyID(TimelinePathConstraintPosition, t.PathConstraintIndex)
}

func (t *PathConstraintPositionTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	constraint := skeleton.PathConstraints[t.PathConstraintIndex]
	t.apply(&constraint.Position, constraint.Data.Position, time, alpha, setupPose)
}

type PathConstraintSpacingTimeline struct {
	pathValueTimeline
}

func NewPathConstraintSpacingTimeline(frameCount int) *PathConstraintSpacingTimeline {
	return &PathConstraintSpacingTimeline{pathValueTimeline: newPathValueTimeline(frameCount)}
}

func (t *PathConstraintSpacingTimeline) Kind() TimelineKind { return TimelinePathConstraintSpacing }

func (t *PathConstraintSpacingTimeline) PropertyID() int32 {
	return propertyID(TimelinePathConstraintSpacing, t.PathConstraintIndex)
}

func (t *PathConstraintSpacingTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	constraint := skeleton.PathConstraints[t.PathConstraintIndex]
	t.apply(&constraint.Spacing, constraint.Data.Spacing, time, alpha, setupPose)
}

type PathConstraintMixTimeline struct {
	CurveTimeline
	PathConstraintIndex int
	frames              []float32 // time, rotate, translate
}

func NewPathConstraintMixTimeline(frameCount int) *PathConstraintMixTimeline {
	return &PathConstraintMixTimeline{CurveTimeline: newCurveTimeline(frameCount), frames: make([]float32, frameCount*pathMixEntries)}
}

func (t *PathConstraintMixTimeline) Kind() TimelineKind { return TimelinePathConstraintMix }

func (t *PathConstraintMixTimeline) PropertyID() int32 {
	return propertyID(TimelinePathConstraintMix, t.PathConstraintIndex)
}

func (t *PathConstraintMixTimeline) Frames() []float32 { return t.frames }

func (t *PathConstraintMixTimeline) SetFrame(frameIndex int, time, rotateMix, translateMix float32) {
	frameIndex *= pathMixEntries
	t.frames[frameIndex] = time
	t.frames[frameIndex+1] = rotateMix
	t.frames[frameIndex+2] = translateMix
}

func (t *PathConstraintMixTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, setupPose, mixingOut bool) {
	constraint := skeleton.PathConstraints[t.PathConstraintIndex]
	frames := t.frames
	if time < frames[0] {
		if setupPose {
			constraint.RotateMix = constraint.Data.RotateMix
			constraint.TranslateMix = constraint.Data.TranslateMix
		}
		return
	}
	var rotate, translate float32
	if time >= frames[len(frames)-pathMixEntries] {
		rotate, translate = frames[len(frames)-2], frames[len(frames)-1]
	} else {
		frame := binarySearch(frames, time, pathMixEntries)
		rotate, translate = frames[frame-2], frames[frame-1]
		percent := t.framePercent(frames, frame, pathMixEntries, time)
		rotate += (frames[frame+1] - rotate) * percent
		translate += (frames[frame+2] - translate) * percent
	}
	if setupPose {
		constraint.RotateMix = constraint.Data.RotateMix + (rotate-constraint.Data.RotateMix)*alpha
		constraint.TranslateMix = constraint.Data.TranslateMix + (translate-constraint.Data.TranslateMix)*alpha
		return
	}
	constraint.RotateMix += (rotate - constraint.RotateMix) * alpha
	constraint.TranslateMix += (translate - constraint.TranslateMix) * alpha
}
