package spine

// TransformMode 子骨骼继承父骨骼哪些变换
type TransformMode uint8

const (
	TransformNormal TransformMode = iota
	TransformOnlyTranslation
	TransformNoRotationOrReflection
	TransformNoScale
	TransformNoScaleOrReflection
)

func (m TransformMode) String() string {
	switch m {
	case TransformNormal:
		return "normal"
	case TransformOnlyTranslation:
		return "onlyTranslation"
	case TransformNoRotationOrReflection:
		return "noRotationOrReflection"
	case TransformNoScale:
		return "noScale"
	case TransformNoScaleOrReflection:
		return "noScaleOrReflection"
	default:
		return "unknown"
	}
}

type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

type AttachmentType uint8

const (
	AttachmentRegion AttachmentType = iota
	AttachmentBoundingBox
	AttachmentMesh
	AttachmentLinkedMesh
	AttachmentPath
	AttachmentPoint
	AttachmentClipping
)

// TimelineKind 同时决定 PropertyID 的高位
type TimelineKind uint8

const (
	TimelineRotate TimelineKind = iota
	TimelineTranslate
	TimelineScale
	TimelineShear
	TimelineAttachment
	TimelineColor
	TimelineDeform
	TimelineEvent
	TimelineDrawOrder
	TimelineIkConstraint
	TimelineTransformConstraint
	TimelinePathConstraintPosition
	TimelinePathConstraintSpacing
	TimelinePathConstraintMix
	TimelineTwoColor
)

func (k TimelineKind) String() string {
	switch k {
	case TimelineRotate:
		return "rotate"
	case TimelineTranslate:
		return "translate"
	case TimelineScale:
		return "scale"
	case TimelineShear:
		return "shear"
	case TimelineAttachment:
		return "attachment"
	case TimelineColor:
		return "color"
	case TimelineDeform:
		return "deform"
	case TimelineEvent:
		return "event"
	case TimelineDrawOrder:
		return "draw_order"
	case TimelineIkConstraint:
		return "ik_constraint"
	case TimelineTransformConstraint:
		return "transform_constraint"
	case TimelinePathConstraintPosition:
		return "path_constraint_position"
	case TimelinePathConstraintSpacing:
		return "path_constraint_spacing"
	case TimelinePathConstraintMix:
		return "path_constraint_mix"
	case TimelineTwoColor:
		return "two_color"
	default:
		return "unknown"
	}
}

const (
	CurveLinear  = 0
	CurveStepped = 1
	CurveBezier  = 2
)

type PositionMode uint8

const (
	PositionFixed PositionMode = iota
	PositionPercent
)

type SpacingMode uint8

const (
	SpacingLength SpacingMode = iota
	SpacingFixed
	SpacingPercent
)

type RotateMode uint8

const (
	RotateTangent RotateMode = iota
	RotateChain
	RotateChainScale
)

// EventType 生命周期事件，全部延迟到 drain 时派发
type EventType uint8

const (
	EventStart EventType = iota
	EventInterrupt
	EventEnd
	EventDispose
	EventComplete
	EventFired
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventInterrupt:
		return "interrupt"
	case EventEnd:
		return "end"
	case EventDispose:
		return "dispose"
	case EventComplete:
		return "complete"
	case EventFired:
		return "event"
	default:
		return "unknown"
	}
}

const (
	epsilon = 0.00001
)
