package spine

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// TODO 现在需要先把 xxx.skel 导出为这里的 json 格式再加载，后面可以直接读取二进制 xxx.skel

type headerJSON struct {
	Name    string     `json:"name"`
	Hash    string     `json:"hash"`
	Version string     `json:"version"`
	Pos     mgl32.Vec2 `json:"pos"`
	Size    mgl32.Vec2 `json:"size"`
	FPS     float32    `json:"fps"`
}

type boneJSON struct {
	Name          string        `json:"name"`
	Parent        string        `json:"parent"` // 根骨骼为空
	Length        float32       `json:"length"`
	Pos           mgl32.Vec2    `json:"pos"`
	Rotation      float32       `json:"rotation"`
	Scale         *mgl32.Vec2   `json:"scale"`
	Shear         mgl32.Vec2    `json:"shear"`
	TransformMode TransformMode `json:"transform_mode"`
	SkinRequired  bool          `json:"skin_required"`
}

type slotJSON struct {
	Name       string      `json:"name"`
	Bone       string      `json:"bone"`
	Color      *mgl32.Vec4 `json:"color"`
	Dark       *mgl32.Vec4 `json:"dark"`
	Attachment string      `json:"attachment"`
	BlendMode  BlendMode   `json:"blend_mode"`
}

type constraintJSON struct {
	Name         string   `json:"name"`
	Order        int      `json:"order"`
	SkinRequired bool     `json:"skin_required"`
	Bones        []string `json:"bones"`
	Target       string   `json:"target"` // path 约束的目标是 slot
}

type ikJSON struct {
	constraintJSON
	Mix      *float32 `json:"mix"`
	Bend     int      `json:"bend"` // 0 按 1 处理
	Compress bool     `json:"compress"`
	Stretch  bool     `json:"stretch"`
	Uniform  bool     `json:"uniform"`
}

type transformJSON struct {
	constraintJSON
	RotateMix    *float32   `json:"rotate_mix"`
	TranslateMix *float32   `json:"translate_mix"`
	ScaleMix     *float32   `json:"scale_mix"`
	ShearMix     *float32   `json:"shear_mix"`
	Rotation     float32    `json:"rotation"`
	Offset       mgl32.Vec2 `json:"offset"`
	OffsetScale  mgl32.Vec2 `json:"offset_scale"`
	OffsetShearY float32    `json:"offset_shear_y"`
	Relative     bool       `json:"relative"`
	Local        bool       `json:"local"`
}

type pathJSON struct {
	constraintJSON
	PositionMode PositionMode `json:"position_mode"`
	SpacingMode  SpacingMode  `json:"spacing_mode"`
	RotateMode   RotateMode   `json:"rotate_mode"`
	Rotation     float32      `json:"rotation"`
	Position     float32      `json:"position"`
	Spacing      float32      `json:"spacing"`
	RotateMix    *float32     `json:"rotate_mix"`
	TranslateMix *float32     `json:"translate_mix"`
}

type attachmentJSON struct {
	Slot           string         `json:"slot"`
	Name           string         `json:"name"`
	AttachmentType AttachmentType `json:"attachment_type"`
	// 公共
	Path  string      `json:"path"`
	Color *mgl32.Vec4 `json:"color"`
	// ATTACHMENT_REGION ATTACHMENT_POINT
	Pos      mgl32.Vec2  `json:"pos"`
	Rotation float32     `json:"rotation"`
	Scale    *mgl32.Vec2 `json:"scale"`
	Size     mgl32.Vec2  `json:"size"`
	// 顶点类附件，长度等于 vertex_count*2 时没有权重
	VertexCount int       `json:"vertex_count"`
	Vertices    []float32 `json:"vertices"`
	// ATTACHMENT_MESH
	UVs       []float32 `json:"uvs"`
	Triangles []uint16  `json:"triangles"`
	Hull      int       `json:"hull"`
	// ATTACHMENT_LINKED_MESH
	Parent     string `json:"parent"`
	ParentSkin string `json:"parent_skin"` // 为空时从默认皮肤找
	Deform     *bool  `json:"deform"`
	// ATTACHMENT_PATH
	Closed        bool      `json:"closed"`
	ConstantSpeed *bool     `json:"constant_speed"`
	Lengths       []float32 `json:"lengths"`
	// ATTACHMENT_CLIPPING
	End string `json:"end"`
}

type skinJSON struct {
	Name        string            `json:"name"`
	Bones       []string          `json:"bones"`
	Ik          []string          `json:"ik"`
	Transform   []string          `json:"transform"`
	Path        []string          `json:"path"`
	Attachments []*attachmentJSON `json:"attachments"`
}

type eventJSON struct {
	Name    string   `json:"name"`
	Int     int      `json:"int"`
	Float   float32  `json:"float"`
	String  string   `json:"string"`
	Audio   string   `json:"audio"`
	Volume  *float32 `json:"volume"`
	Balance float32  `json:"balance"`
}

type curveJSON struct {
	Type int        `json:"type"`
	Data [4]float32 `json:"data"` // cx1 cy1 cx2 cy2
}

type keyFrameJSON struct {
	// 公共
	Time  float32    `json:"time"`
	Curve *curveJSON `json:"curve"` // 到下一帧的插值方式，默认线性
	// BONE_ROTATE
	Rotation float32 `json:"rotation"`
	// BONE_TRANSLATE BONE_SHEAR
	Offset mgl32.Vec2 `json:"offset"`
	// BONE_SCALE
	Scale *mgl32.Vec2 `json:"scale"`
	// SLOT_COLOR SLOT_TWO_COLOR
	Color *mgl32.Vec4 `json:"color"`
	Dark  *mgl32.Vec4 `json:"dark"`
	// SLOT_ATTACHMENT 空串表示清空
	AttachmentName string `json:"attachment_name"`
	// SLOT_DEFORM 从 vertex_offset 开始的顶点，没有权重时是相对 setup 的偏移
	Vertices     []float32 `json:"vertices"`
	VertexOffset int       `json:"vertex_offset"`
	// DRAW_ORDER 完整的 slot 顺序，为空表示 setup 顺序
	DrawOrder []string `json:"draw_order"`
	// EVENT 没有给出的值取 EventData 的
	Event   string   `json:"event"`
	Int     *int     `json:"int"`
	Float   *float32 `json:"float"`
	String  *string  `json:"string"`
	Volume  *float32 `json:"volume"`
	Balance *float32 `json:"balance"`
	// IK
	Mix      *float32 `json:"mix"`
	Bend     int      `json:"bend"`
	Compress bool     `json:"compress"`
	Stretch  bool     `json:"stretch"`
	// TRANSFORM PATH_MIX
	RotateMix    *float32 `json:"rotate_mix"`
	TranslateMix *float32 `json:"translate_mix"`
	ScaleMix     *float32 `json:"scale_mix"`
	ShearMix     *float32 `json:"shear_mix"`
	// PATH_POSITION PATH_SPACING
	Value float32 `json:"value"`
}

type timelineJSON struct {
	TimelineType TimelineKind    `json:"timeline_type"`
	KeyFrames    []*keyFrameJSON `json:"key_frames"`
	// BONE_XXX 使用
	Bone string `json:"bone"`
	// SLOT_XXX DEFORM 使用
	Slot string `json:"slot"`
	// 约束时间线使用
	Constraint string `json:"constraint"`
	// DEFORM 使用，skin 为空时是默认皮肤
	Skin       string `json:"skin"`
	Attachment string `json:"attachment"`
}

type animationJSON struct {
	Name      string          `json:"name"`
	Duration  float32         `json:"duration"`
	Timelines []*timelineJSON `json:"timelines"`
}

type skeletonJSON struct {
	Header     *headerJSON      `json:"header"`
	Bones      []*boneJSON      `json:"bones"` // 父骨骼一定在前
	Slots      []*slotJSON      `json:"slots"` // 提供绘制顺序
	Ik         []*ikJSON        `json:"ik"`
	Transform  []*transformJSON `json:"transform"`
	Path       []*pathJSON      `json:"path"`
	Skins      []*skinJSON      `json:"skins"`
	Events     []*eventJSON     `json:"events"`
	Animations []*animationJSON `json:"animations"`
}

type linkedMesh struct {
	mesh      *MeshAttachment
	slot      int
	parent    string
	skin      string
	inherit   bool
	ownerSkin string
}

type skeletonLoader struct {
	raw         *skeletonJSON
	scale       float32
	data        *SkeletonData
	linkedMeshs []*linkedMesh
}

// ParseSkeletonFile 没有填写名字时使用文件名
func ParseSkeletonFile(path string, scale float32) (*SkeletonData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open skeleton: %w", err)
	}
	defer file.Close()
	res, err := ReadSkeletonData(file, scale)
	if err != nil {
		return nil, fmt.Errorf("parse skeleton %s: %w", path, err)
	}
	if res.Name == "" {
		res.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return res, nil
}

// ReadSkeletonData 所有名字引用在这里解析为下标，scale 作用于所有长度
func ReadSkeletonData(r io.Reader, scale float32) (*SkeletonData, error) {
	raw := &skeletonJSON{}
	if err := json.NewDecoder(r).Decode(raw); err != nil {
		return nil, fmt.Errorf("decode skeleton json: %w", err)
	}
	loader := &skeletonLoader{raw: raw, scale: scale, data: &SkeletonData{}}
	if err := loader.load(); err != nil {
		return nil, err
	}
	return loader.data, nil
}

func (l *skeletonLoader) load() error {
	if header := l.raw.Header; header != nil {
		l.data.Name = header.Name
		l.data.Hash = header.Hash
		l.data.Version = header.Version
		l.data.X, l.data.Y = header.Pos.X(), header.Pos.Y()
		l.data.Width, l.data.Height = header.Size.X(), header.Size.Y()
		l.data.FPS = header.FPS
	}
	steps := []func() error{
		l.loadBones, l.loadSlots, l.loadIkConstraints, l.loadTransformConstraints,
		l.loadPathConstraints, l.loadSkins, l.linkMeshes, l.loadEvents, l.loadAnimations,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (l *skeletonLoader) loadBones() error {
	for i, item := range l.raw.Bones {
		parent := -1
		if item.Parent != "" {
			parent = l.data.FindBoneIndex(item.Parent)
			if parent < 0 {
				return fmt.Errorf("bone %q parent %q: %w", item.Name, item.Parent, ErrUnknownBone)
			}
		}
		bone := NewBoneData(i, item.Name, parent)
		bone.Length = item.Length * l.scale
		bone.X, bone.Y = item.Pos.X()*l.scale, item.Pos.Y()*l.scale
		bone.Rotation = item.Rotation
		if item.Scale != nil {
			bone.ScaleX, bone.ScaleY = item.Scale.X(), item.Scale.Y()
		}
		bone.ShearX, bone.ShearY = item.Shear.X(), item.Shear.Y()
		bone.TransformMode = item.TransformMode
		bone.SkinRequired = item.SkinRequired
		l.data.Bones = append(l.data.Bones, bone)
	}
	return nil
}

func (l *skeletonLoader) loadSlots() error {
	for i, item := range l.raw.Slots {
		bone := l.data.FindBoneIndex(item.Bone)
		if bone < 0 {
			return fmt.Errorf("slot %q bone %q: %w", item.Name, item.Bone, ErrUnknownBone)
		}
		slot := NewSlotData(i, item.Name, bone)
		if item.Color != nil {
			slot.Color = *item.Color
		}
		if item.Dark != nil {
			slot.DarkColor = *item.Dark
			slot.HasDarkColor = true
		}
		slot.AttachmentName = item.Attachment
		slot.BlendMode = item.BlendMode
		l.data.Slots = append(l.data.Slots, slot)
	}
	return nil
}

func (l *skeletonLoader) resolveBones(kind, name string, names []string) ([]int, error) {
	res := make([]int, 0, len(names))
	for _, boneName := range names {
		bone := l.data.FindBoneIndex(boneName)
		if bone < 0 {
			return nil, fmt.Errorf("%s constraint %q bone %q: %w", kind, name, boneName, ErrUnknownBone)
		}
		res = append(res, bone)
	}
	return res, nil
}

func orDefault(value *float32, def float32) float32 {
	if value == nil {
		return def
	}
	return *value
}

func (l *skeletonLoader) loadIkConstraints() error {
	for _, item := range l.raw.Ik {
		constraint := NewIkConstraintData(item.Name)
		constraint.Order = item.Order
		constraint.SkinRequired = item.SkinRequired
		bones, err := l.resolveBones("ik", item.Name, item.Bones)
		if err != nil {
			return err
		}
		if len(bones) == 0 || len(bones) > 2 {
			return fmt.Errorf("ik constraint %q needs 1 or 2 bones, got %d: %w", item.Name, len(bones), ErrUnknownBone)
		}
		constraint.Bones = bones
		constraint.Target = l.data.FindBoneIndex(item.Target)
		if constraint.Target < 0 {
			return fmt.Errorf("ik constraint %q target %q: %w", item.Name, item.Target, ErrUnknownBone)
		}
		constraint.Mix = orDefault(item.Mix, 1)
		if item.Bend < 0 {
			constraint.BendDirection = -1
		}
		constraint.Compress = item.Compress
		constraint.Stretch = item.Stretch
		constraint.Uniform = item.Uniform
		l.data.IkConstraints = append(l.data.IkConstraints, constraint)
	}
	return nil
}

func (l *skeletonLoader) loadTransformConstraints() error {
	for _, item := range l.raw.Transform {
		constraint := NewTransformConstraintData(item.Name)
		constraint.Order = item.Order
		constraint.SkinRequired = item.SkinRequired
		bones, err := l.resolveBones("transform", item.Name, item.Bones)
		if err != nil {
			return err
		}
		constraint.Bones = bones
		constraint.Target = l.data.FindBoneIndex(item.Target)
		if constraint.Target < 0 {
			return fmt.Errorf("transform constraint %q target %q: %w", item.Name, item.Target, ErrUnknownBone)
		}
		constraint.Local = item.Local
		constraint.Relative = item.Relative
		constraint.OffsetRotation = item.Rotation
		constraint.OffsetX, constraint.OffsetY = item.Offset.X()*l.scale, item.Offset.Y()*l.scale
		constraint.OffsetScaleX, constraint.OffsetScaleY = item.OffsetScale.X(), item.OffsetScale.Y()
		constraint.OffsetShearY = item.OffsetShearY
		constraint.RotateMix = orDefault(item.RotateMix, 1)
		constraint.TranslateMix = orDefault(item.TranslateMix, 1)
		constraint.ScaleMix = orDefault(item.ScaleMix, 1)
		constraint.ShearMix = orDefault(item.ShearMix, 1)
		l.data.TransformConstraints = append(l.data.TransformConstraints, constraint)
	}
	return nil
}

func (l *skeletonLoader) loadPathConstraints() error {
	for _, item := range l.raw.Path {
		constraint := NewPathConstraintData(item.Name)
		constraint.Order = item.Order
		constraint.SkinRequired = item.SkinRequired
		bones, err := l.resolveBones("path", item.Name, item.Bones)
		if err != nil {
			return err
		}
		constraint.Bones = bones
		constraint.Target = l.data.FindSlotIndex(item.Target)
		if constraint.Target < 0 {
			return fmt.Errorf("path constraint %q target %q: %w", item.Name, item.Target, ErrUnknownSlot)
		}
		constraint.PositionMode = item.PositionMode
		constraint.SpacingMode = item.SpacingMode
		constraint.RotateMode = item.RotateMode
		constraint.OffsetRotation = item.Rotation
		constraint.Position = item.Position
		if constraint.PositionMode == PositionFixed {
			constraint.Position *= l.scale
		}
		constraint.Spacing = item.Spacing
		if constraint.SpacingMode == SpacingLength || constraint.SpacingMode == SpacingFixed {
			constraint.Spacing *= l.scale
		}
		constraint.RotateMix = orDefault(item.RotateMix, 1)
		constraint.TranslateMix = orDefault(item.TranslateMix, 1)
		l.data.PathConstraints = append(l.data.PathConstraints, constraint)
	}
	return nil
}

func (l *skeletonLoader) loadSkins() error {
	for _, item := range l.raw.Skins {
		skin := NewSkin(item.Name)
		for _, name := range item.Bones {
			bone := l.data.FindBoneIndex(name)
			if bone < 0 {
				return fmt.Errorf("skin %q bone %q: %w", item.Name, name, ErrUnknownBone)
			}
			skin.Bones = append(skin.Bones, bone)
		}
		for _, name := range item.Ik {
			constraint := l.data.FindIkConstraint(name)
			if constraint == nil {
				return fmt.Errorf("skin %q ik constraint %q: %w", item.Name, name, ErrUnknownConstraint)
			}
			skin.Constraints = append(skin.Constraints, constraint)
		}
		for _, name := range item.Transform {
			constraint := l.data.FindTransformConstraint(name)
			if constraint == nil {
				return fmt.Errorf("skin %q transform constraint %q: %w", item.Name, name, ErrUnknownConstraint)
			}
			skin.Constraints = append(skin.Constraints, constraint)
		}
		for _, name := range item.Path {
			constraint := l.data.FindPathConstraint(name)
			if constraint == nil {
				return fmt.Errorf("skin %q path constraint %q: %w", item.Name, name, ErrUnknownConstraint)
			}
			skin.Constraints = append(skin.Constraints, constraint)
		}
		for _, attachmentItem := range item.Attachments {
			slot := l.data.FindSlotIndex(attachmentItem.Slot)
			if slot < 0 {
				return fmt.Errorf("skin %q attachment %q slot %q: %w", item.Name, attachmentItem.Name, attachmentItem.Slot, ErrUnknownSlot)
			}
			attachment, err := l.loadAttachment(item.Name, slot, attachmentItem)
			if err != nil {
				return fmt.Errorf("skin %q: %w", item.Name, err)
			}
			skin.SetAttachment(slot, attachmentItem.Name, attachment)
		}
		l.data.Skins = append(l.data.Skins, skin)
		if skin.Name == "default" {
			l.data.DefaultSkin = skin
		}
	}
	return nil
}

func (l *skeletonLoader) loadAttachment(skinName string, slot int, item *attachmentJSON) (Attachment, error) {
	path := item.Path
	if path == "" {
		path = item.Name
	}
	switch item.AttachmentType {
	case AttachmentRegion:
		region := NewRegionAttachment(item.Name)
		region.Path = path
		region.X, region.Y = item.Pos.X()*l.scale, item.Pos.Y()*l.scale
		region.Rotation = item.Rotation
		if item.Scale != nil {
			region.ScaleX, region.ScaleY = item.Scale.X(), item.Scale.Y()
		}
		region.Width, region.Height = item.Size.X()*l.scale, item.Size.Y()*l.scale
		if item.Color != nil {
			region.Color = *item.Color
		}
		region.UpdateOffset()
		return region, nil
	case AttachmentBoundingBox:
		box := NewBoundingBoxAttachment(item.Name)
		if err := l.loadVertices(&box.VertexAttachment, item, item.VertexCount*2); err != nil {
			return nil, err
		}
		return box, nil
	case AttachmentMesh, AttachmentLinkedMesh:
		mesh := NewMeshAttachment(item.Name)
		mesh.Path = path
		if item.Color != nil {
			mesh.Color = *item.Color
		}
		if item.AttachmentType == AttachmentLinkedMesh || item.Parent != "" {
			inherit := true
			if item.Deform != nil {
				inherit = *item.Deform
			}
			l.linkedMeshs = append(l.linkedMeshs, &linkedMesh{
				mesh: mesh, slot: slot, parent: item.Parent, skin: item.ParentSkin, inherit: inherit, ownerSkin: skinName,
			})
			return mesh, nil
		}
		mesh.UVs = item.UVs
		if err := l.loadVertices(&mesh.VertexAttachment, item, len(item.UVs)); err != nil {
			return nil, err
		}
		mesh.Triangles = item.Triangles
		mesh.HullLength = item.Hull * 2
		return mesh, nil
	case AttachmentPath:
		pathAttachment := NewPathAttachment(item.Name)
		pathAttachment.Closed = item.Closed
		pathAttachment.ConstantSpeed = item.ConstantSpeed == nil || *item.ConstantSpeed
		if err := l.loadVertices(&pathAttachment.VertexAttachment, item, item.VertexCount*2); err != nil {
			return nil, err
		}
		pathAttachment.Lengths = make([]float32, len(item.Lengths))
		for i, length := range item.Lengths {
			pathAttachment.Lengths[i] = length * l.scale
		}
		return pathAttachment, nil
	case AttachmentPoint:
		point := NewPointAttachment(item.Name)
		point.X, point.Y = item.Pos.X()*l.scale, item.Pos.Y()*l.scale
		point.Rotation = item.Rotation
		return point, nil
	case AttachmentClipping:
		clip := NewClippingAttachment(item.Name)
		if item.End != "" {
			clip.EndSlot = l.data.FindSlotIndex(item.End)
			if clip.EndSlot < 0 {
				return nil, fmt.Errorf("clipping %q end %q: %w", item.Name, item.End, ErrUnknownSlot)
			}
		}
		if err := l.loadVertices(&clip.VertexAttachment, item, item.VertexCount*2); err != nil {
			return nil, err
		}
		return clip, nil
	default:
		return nil, fmt.Errorf("attachment %q type %d: %w", item.Name, item.AttachmentType, ErrUnknownAttachment)
	}
}

// loadVertices 长度刚好是 verticesLength 时没有权重，否则按 [boneCount, (bone, x, y, weight)...] 读取
func (l *skeletonLoader) loadVertices(attachment *VertexAttachment, item *attachmentJSON, verticesLength int) error {
	attachment.WorldVerticesLength = verticesLength
	vertices := item.Vertices
	if len(vertices) == verticesLength {
		attachment.Vertices = make([]float32, len(vertices))
		for i, v := range vertices {
			attachment.Vertices[i] = v * l.scale
		}
		return nil
	}
	weights := make([]float32, 0, len(vertices))
	bones := make([]int, 0, len(vertices)/4)
	for i := 0; i < len(vertices); {
		boneCount := int(vertices[i])
		i++
		if i+boneCount*4 > len(vertices) {
			return fmt.Errorf("attachment %q weighted vertices truncated: %w", item.Name, ErrUnknownAttachment)
		}
		bones = append(bones, boneCount)
		for end := i + boneCount*4; i < end; i += 4 {
			bone := int(vertices[i])
			if bone < 0 || bone >= len(l.data.Bones) {
				return fmt.Errorf("attachment %q vertex bone %d: %w", item.Name, bone, ErrUnknownBone)
			}
			bones = append(bones, bone)
			weights = append(weights, vertices[i+1]*l.scale, vertices[i+2]*l.scale, vertices[i+3])
		}
	}
	attachment.Bones = bones
	attachment.Vertices = weights
	return nil
}

// linkMeshes 所有皮肤读完后才能找到父网格
func (l *skeletonLoader) linkMeshes() error {
	for _, item := range l.linkedMeshs {
		skin := l.data.DefaultSkin
		if item.skin != "" {
			skin = l.data.FindSkin(item.skin)
		}
		if skin == nil {
			return fmt.Errorf("linked mesh %q in skin %q parent skin %q: %w", item.mesh.Name(), item.ownerSkin, item.skin, ErrUnknownSkin)
		}
		parent, ok := skin.Attachment(item.slot, item.parent).(*MeshAttachment)
		if !ok {
			return fmt.Errorf("linked mesh %q parent %q: %w", item.mesh.Name(), item.parent, ErrUnknownAttachment)
		}
		item.mesh.InheritDeform = item.inherit
		item.mesh.SetParentMesh(parent)
	}
	l.linkedMeshs = nil
	return nil
}

func (l *skeletonLoader) loadEvents() error {
	for _, item := range l.raw.Events {
		l.data.Events = append(l.data.Events, &EventData{
			Name:      item.Name,
			Int:       item.Int,
			Float:     item.Float,
			String:    item.String,
			AudioPath: item.Audio,
			Volume:    orDefault(item.Volume, 1),
			Balance:   item.Balance,
		})
	}
	return nil
}

func (l *skeletonLoader) loadAnimations() error {
	for _, item := range l.raw.Animations {
		animation, err := l.loadAnimation(item)
		if err != nil {
			return fmt.Errorf("animation %q: %w", item.Name, err)
		}
		l.data.Animations = append(l.data.Animations, animation)
	}
	return nil
}

type curveSetter interface {
	SetStepped(frameIndex int)
	SetCurve(frameIndex int, cx1, cy1, cx2, cy2 float32)
}

// readCurve 最后一帧之后没有曲线
func readCurve(timeline curveSetter, frameIndex, frameCount int, frame *keyFrameJSON) {
	if frame.Curve == nil || frameIndex >= frameCount-1 {
		return
	}
	switch frame.Curve.Type {
	case CurveStepped:
		timeline.SetStepped(frameIndex)
	case CurveBezier:
		data := frame.Curve.Data
		timeline.SetCurve(frameIndex, data[0], data[1], data[2], data[3])
	}
}

func (l *skeletonLoader) loadAnimation(item *animationJSON) (*Animation, error) {
	timelines := make([]Timeline, 0, len(item.Timelines))
	duration := item.Duration
	for _, timelineItem := range item.Timelines {
		frames := timelineItem.KeyFrames
		if len(frames) == 0 {
			log.Printf("spine: animation %q skip empty %v timeline", item.Name, timelineItem.TimelineType)
			continue
		}
		sort.SliceStable(frames, func(i, j int) bool { // 保证顺序性
			return frames[i].Time < frames[j].Time
		})
		timeline, err := l.loadTimeline(timelineItem)
		if err != nil {
			return nil, err
		}
		timelines = append(timelines, timeline)
		duration = max(duration, frames[len(frames)-1].Time)
	}
	return NewAnimation(item.Name, timelines, duration), nil
}

func (l *skeletonLoader) loadTimeline(item *timelineJSON) (Timeline, error) {
	frames := item.KeyFrames
	count := len(frames)
	switch item.TimelineType {
	case TimelineRotate, TimelineTranslate, TimelineScale, TimelineShear:
		bone := l.data.FindBoneIndex(item.Bone)
		if bone < 0 {
			return nil, fmt.Errorf("%v timeline bone %q: %w", item.TimelineType, item.Bone, ErrUnknownBone)
		}
		return l.loadBoneTimeline(item.TimelineType, bone, frames), nil
	case TimelineColor, TimelineTwoColor, TimelineAttachment:
		slot := l.data.FindSlotIndex(item.Slot)
		if slot < 0 {
			return nil, fmt.Errorf("%v timeline slot %q: %w", item.TimelineType, item.Slot, ErrUnknownSlot)
		}
		return l.loadSlotTimeline(item.TimelineType, slot, frames), nil
	case TimelineDeform:
		return l.loadDeformTimeline(item)
	case TimelineDrawOrder:
		timeline := NewDrawOrderTimeline(count)
		for i, frame := range frames {
			drawOrder, err := l.readDrawOrder(frame.DrawOrder)
			if err != nil {
				return nil, err
			}
			timeline.SetFrame(i, frame.Time, drawOrder)
		}
		return timeline, nil
	case TimelineEvent:
		timeline := NewEventTimeline(count)
		for i, frame := range frames {
			data := l.data.FindEvent(frame.Event)
			if data == nil {
				return nil, fmt.Errorf("event timeline event %q: %w", frame.Event, ErrUnknownEvent)
			}
			event := NewEvent(frame.Time, data)
			if frame.Int != nil {
				event.Int = *frame.Int
			}
			event.Float = orDefault(frame.Float, event.Float)
			if frame.String != nil {
				event.String = *frame.String
			}
			event.Volume = orDefault(frame.Volume, event.Volume)
			event.Balance = orDefault(frame.Balance, event.Balance)
			timeline.SetFrame(i, event)
		}
		return timeline, nil
	case TimelineIkConstraint, TimelineTransformConstraint, TimelinePathConstraintPosition,
		TimelinePathConstraintSpacing, TimelinePathConstraintMix:
		return l.loadConstraintTimeline(item)
	default:
		return nil, fmt.Errorf("timeline type %d: %w", item.TimelineType, ErrInvalidTimeline)
	}
}

func (l *skeletonLoader) loadBoneTimeline(kind TimelineKind, bone int, frames []*keyFrameJSON) Timeline {
	count := len(frames)
	switch kind {
	case TimelineRotate:
		timeline := NewRotateTimeline(count)
		timeline.BoneIndex = bone
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, frame.Rotation)
			readCurve(timeline, i, count, frame)
		}
		return timeline
	case TimelineScale:
		timeline := NewScaleTimeline(count)
		timeline.BoneIndex = bone
		for i, frame := range frames {
			scale := mgl32.Vec2{1, 1}
			if frame.Scale != nil {
				scale = *frame.Scale
			}
			timeline.SetFrame(i, frame.Time, scale.X(), scale.Y())
			readCurve(timeline, i, count, frame)
		}
		return timeline
	case TimelineShear:
		timeline := NewShearTimeline(count)
		timeline.BoneIndex = bone
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, frame.Offset.X(), frame.Offset.Y())
			readCurve(timeline, i, count, frame)
		}
		return timeline
	default:
		timeline := NewTranslateTimeline(count)
		timeline.BoneIndex = bone
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, frame.Offset.X()*l.scale, frame.Offset.Y()*l.scale)
			readCurve(timeline, i, count, frame)
		}
		return timeline
	}
}

func (l *skeletonLoader) loadSlotTimeline(kind TimelineKind, slot int, frames []*keyFrameJSON) Timeline {
	count := len(frames)
	white := mgl32.Vec4{1, 1, 1, 1}
	colorOf := func(color *mgl32.Vec4) mgl32.Vec4 {
		if color == nil {
			return white
		}
		return *color
	}
	switch kind {
	case TimelineColor:
		timeline := NewColorTimeline(count)
		timeline.SlotIndex = slot
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, colorOf(frame.Color))
			readCurve(timeline, i, count, frame)
		}
		return timeline
	case TimelineTwoColor:
		timeline := NewTwoColorTimeline(count)
		timeline.SlotIndex = slot
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, colorOf(frame.Color), colorOf(frame.Dark))
			readCurve(timeline, i, count, frame)
		}
		return timeline
	default:
		timeline := NewAttachmentTimeline(count)
		timeline.SlotIndex = slot
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, frame.AttachmentName)
		}
		return timeline
	}
}

func (l *skeletonLoader) loadDeformTimeline(item *timelineJSON) (Timeline, error) {
	skin := l.data.DefaultSkin
	if item.Skin != "" {
		skin = l.data.FindSkin(item.Skin)
	}
	if skin == nil {
		return nil, fmt.Errorf("deform timeline skin %q: %w", item.Skin, ErrUnknownSkin)
	}
	slot := l.data.FindSlotIndex(item.Slot)
	if slot < 0 {
		return nil, fmt.Errorf("deform timeline slot %q: %w", item.Slot, ErrUnknownSlot)
	}
	attachment, ok := skin.Attachment(slot, item.Attachment).(vertexAttachment)
	if !ok {
		return nil, fmt.Errorf("deform timeline attachment %q: %w", item.Attachment, ErrUnknownAttachment)
	}
	vertexData := attachment.vertexData()
	weighted := len(vertexData.Bones) != 0
	deformLength := len(vertexData.Vertices)
	if weighted {
		deformLength = deformLength / 3 * 2
	}

	count := len(item.KeyFrames)
	timeline := NewDeformTimeline(count, attachment)
	timeline.SlotIndex = slot
	for i, frame := range item.KeyFrames {
		if frame.VertexOffset < 0 || frame.VertexOffset+len(frame.Vertices) > deformLength {
			return nil, fmt.Errorf("deform timeline attachment %q frame %d out of range: %w", item.Attachment, i, ErrInvalidTimeline)
		}
		deform := make([]float32, deformLength)
		for j, v := range frame.Vertices {
			deform[frame.VertexOffset+j] = v * l.scale
		}
		if !weighted {
			for j, v := range vertexData.Vertices {
				deform[j] += v
			}
		}
		timeline.SetFrame(i, frame.Time, deform)
		readCurve(timeline, i, count, frame)
	}
	return timeline, nil
}

func (l *skeletonLoader) readDrawOrder(names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if len(names) != len(l.data.Slots) {
		return nil, fmt.Errorf("draw order has %d slots, want %d: %w", len(names), len(l.data.Slots), ErrInvalidTimeline)
	}
	res := make([]int, len(names))
	seen := make([]bool, len(names))
	for i, name := range names {
		slot := l.data.FindSlotIndex(name)
		if slot < 0 {
			return nil, fmt.Errorf("draw order slot %q: %w", name, ErrUnknownSlot)
		}
		if seen[slot] {
			return nil, fmt.Errorf("draw order slot %q repeated: %w", name, ErrInvalidTimeline)
		}
		seen[slot] = true
		res[i] = slot
	}
	return res, nil
}

func (l *skeletonLoader) loadConstraintTimeline(item *timelineJSON) (Timeline, error) {
	frames := item.KeyFrames
	count := len(frames)
	switch item.TimelineType {
	case TimelineIkConstraint:
		index := indexOfName(l.data.IkConstraints, item.Constraint)
		if index < 0 {
			return nil, fmt.Errorf("ik timeline constraint %q: %w", item.Constraint, ErrUnknownConstraint)
		}
		timeline := NewIkConstraintTimeline(count)
		timeline.IkConstraintIndex = index
		for i, frame := range frames {
			bend := 1
			if frame.Bend < 0 {
				bend = -1
			}
			timeline.SetFrame(i, frame.Time, orDefault(frame.Mix, 1), bend, frame.Compress, frame.Stretch)
			readCurve(timeline, i, count, frame)
		}
		return timeline, nil
	case TimelineTransformConstraint:
		index := indexOfName(l.data.TransformConstraints, item.Constraint)
		if index < 0 {
			return nil, fmt.Errorf("transform timeline constraint %q: %w", item.Constraint, ErrUnknownConstraint)
		}
		timeline := NewTransformConstraintTimeline(count)
		timeline.TransformConstraintIndex = index
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, orDefault(frame.RotateMix, 1), orDefault(frame.TranslateMix, 1),
				orDefault(frame.ScaleMix, 1), orDefault(frame.ShearMix, 1))
			readCurve(timeline, i, count, frame)
		}
		return timeline, nil
	}

	index := indexOfName(l.data.PathConstraints, item.Constraint)
	if index < 0 {
		return nil, fmt.Errorf("path timeline constraint %q: %w", item.Constraint, ErrUnknownConstraint)
	}
	data := l.data.PathConstraints[index]
	switch item.TimelineType {
	case TimelinePathConstraintMix:
		timeline := NewPathConstraintMixTimeline(count)
		timeline.PathConstraintIndex = index
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, orDefault(frame.RotateMix, 1), orDefault(frame.TranslateMix, 1))
			readCurve(timeline, i, count, frame)
		}
		return timeline, nil
	case TimelinePathConstraintSpacing:
		timeline := NewPathConstraintSpacingTimeline(count)
		timeline.PathConstraintIndex = index
		scale := float32(1)
		if data.SpacingMode == SpacingLength || data.SpacingMode == SpacingFixed {
			scale = l.scale
		}
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, frame.Value*scale)
			readCurve(timeline, i, count, frame)
		}
		return timeline, nil
	default:
		timeline := NewPathConstraintPositionTimeline(count)
		timeline.PathConstraintIndex = index
		scale := float32(1)
		if data.PositionMode == PositionFixed {
			scale = l.scale
		}
		for i, frame := range frames {
			timeline.SetFrame(i, frame.Time, frame.Value*scale)
			readCurve(timeline, i, count, frame)
		}
		return timeline, nil
	}
}

func indexOfName[T ConstraintData](items []T, name string) int {
	for i, item := range items {
		if item.ConstraintName() == name {
			return i
		}
	}
	return -1
}
