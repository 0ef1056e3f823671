package spine

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnknownBone       = errors.New("unknown bone")
	ErrUnknownSlot       = errors.New("unknown slot")
	ErrUnknownSkin       = errors.New("unknown skin")
	ErrUnknownAnimation  = errors.New("unknown animation")
	ErrUnknownAttachment = errors.New("unknown attachment")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrUnknownConstraint = errors.New("unknown constraint")
	ErrInvalidTimeline   = errors.New("invalid timeline")
)

// BoneData 骨骼的 setup pose，加载后不再修改
type BoneData struct {
	Index         int
	Name          string
	Parent        int // 根骨骼为 -1
	Length        float32
	X, Y          float32
	Rotation      float32
	ScaleX        float32
	ScaleY        float32
	ShearX        float32
	ShearY        float32
	TransformMode TransformMode
	SkinRequired  bool // 只有当前皮肤引用时才激活
}

func NewBoneData(index int, name string, parent int) *BoneData {
	return &BoneData{Index: index, Name: name, Parent: parent, ScaleX: 1, ScaleY: 1}
}

type SlotData struct {
	Index          int
	Name           string
	Bone           int
	Color          mgl32.Vec4
	DarkColor      mgl32.Vec4 // HasDarkColor 为 true 时有效，只用 rgb
	HasDarkColor   bool
	AttachmentName string // 空串表示没有 setup 附件
	BlendMode      BlendMode
}

func NewSlotData(index int, name string, bone int) *SlotData {
	return &SlotData{Index: index, Name: name, Bone: bone, Color: mgl32.Vec4{1, 1, 1, 1}}
}

type EventData struct {
	Name      string
	Int       int
	Float     float32
	String    string
	AudioPath string
	Volume    float32
	Balance   float32
}

// Event 事件时间线触发的实例，携带当帧的数据
type Event struct {
	Data    *EventData
	Time    float32
	Int     int
	Float   float32
	String  string
	Volume  float32
	Balance float32
}

func NewEvent(time float32, data *EventData) *Event {
	return &Event{
		Data:    data,
		Time:    time,
		Int:     data.Int,
		Float:   data.Float,
		String:  data.String,
		Volume:  data.Volume,
		Balance: data.Balance,
	}
}

// ConstraintData IK Transform Path 约束的公共部分
type ConstraintData interface {
	ConstraintName() string
	ConstraintOrder() int
	IsSkinRequired() bool
}

type constraintBase struct {
	Name         string
	Order        int // 只在 UpdateCache 时用来排序
	SkinRequired bool
}

func (c *constraintBase) ConstraintName() string { return c.Name }
func (c *constraintBase) ConstraintOrder() int   { return c.Order }
func (c *constraintBase) IsSkinRequired() bool   { return c.SkinRequired }

type IkConstraintData struct {
	constraintBase
	Bones         []int // 1 或 2 个骨骼，父在前
	Target        int
	Mix           float32
	BendDirection int
	Compress      bool
	Stretch       bool
	Uniform       bool
}

func NewIkConstraintData(name string) *IkConstraintData {
	return &IkConstraintData{constraintBase: constraintBase{Name: name}, Mix: 1, BendDirection: 1}
}

type TransformConstraintData struct {
	constraintBase
	Bones          []int
	Target         int
	RotateMix      float32
	TranslateMix   float32
	ScaleMix       float32
	ShearMix       float32
	OffsetRotation float32
	OffsetX        float32
	OffsetY        float32
	OffsetScaleX   float32
	OffsetScaleY   float32
	OffsetShearY   float32
	Relative       bool
	Local          bool
}

func NewTransformConstraintData(name string) *TransformConstraintData {
	return &TransformConstraintData{constraintBase: constraintBase{Name: name}}
}

type PathConstraintData struct {
	constraintBase
	Bones          []int
	Target         int // 目标是 slot，附件需要是 PathAttachment
	PositionMode   PositionMode
	SpacingMode    SpacingMode
	RotateMode     RotateMode
	OffsetRotation float32
	Position       float32
	Spacing        float32
	RotateMix      float32
	TranslateMix   float32
}

func NewPathConstraintData(name string) *PathConstraintData {
	return &PathConstraintData{constraintBase: constraintBase{Name: name}}
}

// SkeletonData 反序列化的产物，所有引用在加载时已经解析为下标
type SkeletonData struct {
	Name                 string
	Hash                 string
	Version              string
	X, Y                 float32
	Width, Height        float32
	FPS                  float32
	Bones                []*BoneData // 第一个是根骨骼，父骨骼一定在前
	Slots                []*SlotData
	Skins                []*Skin
	DefaultSkin          *Skin
	Events               []*EventData
	Animations           []*Animation
	IkConstraints        []*IkConstraintData
	TransformConstraints []*TransformConstraintData
	PathConstraints      []*PathConstraintData
}

func (d *SkeletonData) FindBone(name string) *BoneData {
	if idx := d.FindBoneIndex(name); idx >= 0 {
		return d.Bones[idx]
	}
	return nil
}

func (d *SkeletonData) FindBoneIndex(name string) int {
	for i, bone := range d.Bones {
		if bone.Name == name {
			return i
		}
	}
	return -1
}

func (d *SkeletonData) FindSlot(name string) *SlotData {
	if idx := d.FindSlotIndex(name); idx >= 0 {
		return d.Slots[idx]
	}
	return nil
}

func (d *SkeletonData) FindSlotIndex(name string) int {
	for i, slot := range d.Slots {
		if slot.Name == name {
			return i
		}
	}
	return -1
}

func (d *SkeletonData) FindSkin(name string) *Skin {
	for _, skin := range d.Skins {
		if skin.Name == name {
			return skin
		}
	}
	return nil
}

func (d *SkeletonData) FindEvent(name string) *EventData {
	for _, event := range d.Events {
		if event.Name == name {
			return event
		}
	}
	return nil
}

func (d *SkeletonData) FindAnimation(name string) *Animation {
	for _, animation := range d.Animations {
		if animation.Name == name {
			return animation
		}
	}
	return nil
}

func (d *SkeletonData) FindIkConstraint(name string) *IkConstraintData {
	for _, item := range d.IkConstraints {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindTransformConstraint(name string) *TransformConstraintData {
	for _, item := range d.TransformConstraints {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindPathConstraint(name string) *PathConstraintData {
	for _, item := range d.PathConstraints {
		if item.Name == name {
			return item
		}
	}
	return nil
}
