package spine

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Skeleton 运行时实例，多个实例可以共享同一个 SkeletonData
type Skeleton struct {
	Data                 *SkeletonData
	Bones                []*Bone
	Slots                []*Slot
	DrawOrder            []*Slot
	IkConstraints        []*IkConstraint
	TransformConstraints []*TransformConstraint
	PathConstraints      []*PathConstraint
	Skin                 *Skin
	Color                mgl32.Vec4
	X, Y                 float32
	ScaleX, ScaleY       float32
	Time                 float32

	updateCache      []Updatable
	updateCacheReset []*Bone
}

func NewSkeleton(data *SkeletonData) *Skeleton {
	if data == nil {
		panic("skeleton data cannot be nil")
	}
	res := &Skeleton{Data: data, Color: mgl32.Vec4{1, 1, 1, 1}, ScaleX: 1, ScaleY: 1}
	res.Bones = make([]*Bone, 0, len(data.Bones))
	for _, boneData := range data.Bones {
		bone := newBone(boneData, res)
		if boneData.Parent >= 0 {
			parent := res.Bones[boneData.Parent]
			parent.children = append(parent.children, boneData.Index)
		}
		res.Bones = append(res.Bones, bone)
	}
	res.Slots = make([]*Slot, 0, len(data.Slots))
	res.DrawOrder = make([]*Slot, 0, len(data.Slots))
	for _, slotData := range data.Slots {
		slot := newSlot(slotData, res)
		res.Slots = append(res.Slots, slot)
		res.DrawOrder = append(res.DrawOrder, slot)
	}
	for _, item := range data.IkConstraints {
		res.IkConstraints = append(res.IkConstraints, NewIkConstraint(item, res))
	}
	for _, item := range data.TransformConstraints {
		res.TransformConstraints = append(res.TransformConstraints, NewTransformConstraint(item, res))
	}
	for _, item := range data.PathConstraints {
		res.PathConstraints = append(res.PathConstraints, NewPathConstraint(item, res))
	}
	res.UpdateCache()
	return res
}

// UpdateCache 骨骼 约束 或 皮肤发生结构变化后必须调用
func (s *Skeleton) UpdateCache() {
	s.updateCache = s.updateCache[:0]
	s.updateCacheReset = s.updateCacheReset[:0]

	for _, bone := range s.Bones {
		bone.sorted = bone.Data.SkinRequired
		bone.active = !bone.sorted
	}
	if s.Skin != nil {
		for _, idx := range s.Skin.Bones {
			for bone := s.Bones[idx]; bone != nil; bone = bone.Parent() {
				bone.sorted = false
				bone.active = true
			}
		}
	}

	ikCount, transformCount, pathCount := len(s.IkConstraints), len(s.TransformConstraints), len(s.PathConstraints)
	constraintCount := ikCount + transformCount + pathCount
outer:
	for i := 0; i < constraintCount; i++ {
		for _, constraint := range s.IkConstraints {
			if constraint.Data.Order == i {
				s.sortIkConstraint(constraint)
				continue outer
			}
		}
		for _, constraint := range s.TransformConstraints {
			if constraint.Data.Order == i {
				s.sortTransformConstraint(constraint)
				continue outer
			}
		}
		for _, constraint := range s.PathConstraints {
			if constraint.Data.Order == i {
				s.sortPathConstraint(constraint)
				continue outer
			}
		}
	}

	for _, bone := range s.Bones {
		s.sortBone(bone)
	}
}

// UpdateCacheList 当前的执行顺序，只读
func (s *Skeleton) UpdateCacheList() []Updatable {
	return s.updateCache
}

func (s *Skeleton) constraintActive(data ConstraintData) bool {
	if !data.IsSkinRequired() {
		return true
	}
	if s.Skin == nil {
		return false
	}
	for _, item := range s.Skin.Constraints {
		if item == data {
			return true
		}
	}
	return false
}

func (s *Skeleton) sortIkConstraint(constraint *IkConstraint) {
	target := s.Bones[constraint.Target]
	constraint.active = target.active && s.constraintActive(constraint.Data)
	if !constraint.active {
		return
	}
	s.sortBone(target)

	parent := s.Bones[constraint.Bones[0]]
	s.sortBone(parent)
	child := s.Bones[constraint.Bones[len(constraint.Bones)-1]]
	if len(constraint.Bones) > 1 && !s.cacheContains(child) {
		s.updateCacheReset = append(s.updateCacheReset, child)
	}

	s.updateCache = append(s.updateCache, constraint)

	s.sortReset(parent.children)
	child.sorted = true
}

func (s *Skeleton) sortTransformConstraint(constraint *TransformConstraint) {
	target := s.Bones[constraint.Target]
	constraint.active = target.active && s.constraintActive(constraint.Data)
	if !constraint.active {
		return
	}
	s.sortBone(target)

	if constraint.Data.Local {
		for _, idx := range constraint.Bones {
			child := s.Bones[idx]
			if parent := child.Parent(); parent != nil {
				s.sortBone(parent)
			}
			if !s.cacheContains(child) {
				s.updateCacheReset = append(s.updateCacheReset, child)
			}
		}
	} else {
		for _, idx := range constraint.Bones {
			s.sortBone(s.Bones[idx])
		}
	}

	s.updateCache = append(s.updateCache, constraint)

	for _, idx := range constraint.Bones {
		s.sortReset(s.Bones[idx].children)
	}
	for _, idx := range constraint.Bones {
		s.Bones[idx].sorted = true
	}
}

func (s *Skeleton) sortPathConstraint(constraint *PathConstraint) {
	slot := s.Slots[constraint.Target]
	slotBone := slot.Bone()
	constraint.active = slotBone.active && s.constraintActive(constraint.Data)
	if !constraint.active {
		return
	}

	slotIndex := slot.Data.Index
	if s.Skin != nil {
		s.sortPathConstraintSkin(s.Skin, slotIndex, slotBone)
	}
	if s.Data.DefaultSkin != nil && s.Data.DefaultSkin != s.Skin {
		s.sortPathConstraintSkin(s.Data.DefaultSkin, slotIndex, slotBone)
	}
	for _, skin := range s.Data.Skins {
		s.sortPathConstraintSkin(skin, slotIndex, slotBone)
	}
	s.sortPathConstraintAttachment(slot.attachment, slotBone)

	for _, idx := range constraint.Bones {
		s.sortBone(s.Bones[idx])
	}

	s.updateCache = append(s.updateCache, constraint)

	for _, idx := range constraint.Bones {
		s.sortReset(s.Bones[idx].children)
	}
	for _, idx := range constraint.Bones {
		s.Bones[idx].sorted = true
	}
}

func (s *Skeleton) sortPathConstraintSkin(skin *Skin, slotIndex int, slotBone *Bone) {
	for _, entry := range skin.entries {
		if entry.SlotIndex == slotIndex {
			s.sortPathConstraintAttachment(entry.Attachment, slotBone)
		}
	}
}

// sortPathConstraintAttachment 路径顶点受哪些骨骼影响，这些骨骼必须先更新
func (s *Skeleton) sortPathConstraintAttachment(attachment Attachment, slotBone *Bone) {
	path, ok := attachment.(*PathAttachment)
	if !ok {
		return
	}
	if len(path.Bones) == 0 {
		s.sortBone(slotBone)
		return
	}
	for i := 0; i < len(path.Bones); {
		boneCount := path.Bones[i]
		i++
		for n := i + boneCount; i < n; i++ {
			s.sortBone(s.Bones[path.Bones[i]])
		}
	}
}

// sortBone 先父后子加入缓存，已排序的跳过
func (s *Skeleton) sortBone(bone *Bone) {
	if bone.sorted {
		return
	}
	chain := make([]*Bone, 0, 8)
	for curr := bone; curr != nil && !curr.sorted; curr = curr.Parent() {
		chain = append(chain, curr)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].sorted = true
		s.updateCache = append(s.updateCache, chain[i])
	}
}

// sortReset 清除子树的 sorted 标记，让后面的约束可以重新排序这些骨骼
func (s *Skeleton) sortReset(children []int) {
	stack := append([]int(nil), children...)
	for len(stack) > 0 {
		bone := s.Bones[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !bone.active {
			continue
		}
		if bone.sorted {
			stack = append(stack, bone.children...)
		}
		bone.sorted = false
	}
}

func (s *Skeleton) cacheContains(bone *Bone) bool {
	for _, item := range s.updateCache {
		if item == Updatable(bone) {
			return true
		}
	}
	return false
}

// UpdateWorldTransform 按 UpdateCache 顺序计算所有骨骼的世界矩阵并执行约束
func (s *Skeleton) UpdateWorldTransform() {
	for _, bone := range s.updateCacheReset {
		bone.AX, bone.AY = bone.X, bone.Y
		bone.ARotation = bone.Rotation
		bone.AScaleX, bone.AScaleY = bone.ScaleX, bone.ScaleY
		bone.AShearX, bone.AShearY = bone.ShearX, bone.ShearY
		bone.AppliedValid = true
	}
	for _, item := range s.updateCache {
		item.Update()
	}
}

func (s *Skeleton) SetToSetupPose() {
	s.SetBonesToSetupPose()
	s.SetSlotsToSetupPose()
}

func (s *Skeleton) SetBonesToSetupPose() {
	for _, bone := range s.Bones {
		bone.SetToSetupPose()
	}
	for _, constraint := range s.IkConstraints {
		constraint.SetToSetupPose()
	}
	for _, constraint := range s.TransformConstraints {
		constraint.SetToSetupPose()
	}
	for _, constraint := range s.PathConstraints {
		constraint.SetToSetupPose()
	}
}

func (s *Skeleton) SetSlotsToSetupPose() {
	copy(s.DrawOrder, s.Slots)
	for _, slot := range s.Slots {
		slot.SetToSetupPose()
	}
}

func (s *Skeleton) RootBone() *Bone {
	if len(s.Bones) == 0 {
		return nil
	}
	return s.Bones[0]
}

func (s *Skeleton) FindBone(name string) *Bone {
	for _, bone := range s.Bones {
		if bone.Data.Name == name {
			return bone
		}
	}
	return nil
}

func (s *Skeleton) FindSlot(name string) *Slot {
	for _, slot := range s.Slots {
		if slot.Data.Name == name {
			return slot
		}
	}
	return nil
}

func (s *Skeleton) FindIkConstraint(name string) *IkConstraint {
	for _, item := range s.IkConstraints {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

func (s *Skeleton) FindTransformConstraint(name string) *TransformConstraint {
	for _, item := range s.TransformConstraints {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

func (s *Skeleton) FindPathConstraint(name string) *PathConstraint {
	for _, item := range s.PathConstraints {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

// SetSkin 没有旧皮肤时挂上新皮肤里 setup 指定的附件，否则替换旧皮肤中同名的附件
func (s *Skeleton) SetSkin(skin *Skin) {
	if skin == s.Skin {
		return
	}
	if skin != nil {
		if s.Skin != nil {
			skin.attachAll(s, s.Skin)
		} else {
			for i, slot := range s.Slots {
				name := slot.Data.AttachmentName
				if name == "" {
					continue
				}
				if attachment := skin.Attachment(i, name); attachment != nil {
					slot.SetAttachment(attachment)
				}
			}
		}
	}
	s.Skin = skin
	s.UpdateCache()
}

func (s *Skeleton) SetSkinByName(name string) error {
	skin := s.Data.FindSkin(name)
	if skin == nil {
		return fmt.Errorf("skin %q: %w", name, ErrUnknownSkin)
	}
	s.SetSkin(skin)
	return nil
}

// Attachment 先查当前皮肤，再查默认皮肤
func (s *Skeleton) Attachment(slotIndex int, name string) Attachment {
	if s.Skin != nil {
		if attachment := s.Skin.Attachment(slotIndex, name); attachment != nil {
			return attachment
		}
	}
	if s.Data.DefaultSkin != nil {
		return s.Data.DefaultSkin.Attachment(slotIndex, name)
	}
	return nil
}

func (s *Skeleton) AttachmentByName(slotName, name string) Attachment {
	idx := s.Data.FindSlotIndex(slotName)
	if idx < 0 {
		return nil
	}
	return s.Attachment(idx, name)
}

// SetAttachment name 为空时清空附件
func (s *Skeleton) SetAttachment(slotName, name string) error {
	slot := s.FindSlot(slotName)
	if slot == nil {
		return fmt.Errorf("slot %q: %w", slotName, ErrUnknownSlot)
	}
	if name == "" {
		slot.SetAttachment(nil)
		return nil
	}
	attachment := s.Attachment(slot.Data.Index, name)
	if attachment == nil {
		return fmt.Errorf("attachment %q on slot %q: %w", name, slotName, ErrUnknownAttachment)
	}
	slot.SetAttachment(attachment)
	return nil
}

func (s *Skeleton) Update(delta float32) {
	s.Time += delta
}

// Bounds 可见的 region 与 mesh 附件的世界包围盒，没有时返回零值
func (s *Skeleton) Bounds() (lower, upper mgl32.Vec2) {
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	vertices := make([]float32, 0, 8)
	found := false
	for _, slot := range s.DrawOrder {
		if !slot.Bone().active {
			continue
		}
		switch attachment := slot.attachment.(type) {
		case *RegionAttachment:
			vertices = grow(vertices, 8)
			attachment.ComputeWorldVertices(slot.Bone(), vertices, 0, 2)
		case *MeshAttachment:
			vertices = grow(vertices, attachment.WorldVerticesLength)
			attachment.ComputeWorldVertices(slot, 0, attachment.WorldVerticesLength, vertices, 0, 2)
		default:
			continue
		}
		for i := 0; i+1 < len(vertices); i += 2 {
			x, y := vertices[i], vertices[i+1]
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
		found = true
	}
	if !found {
		return mgl32.Vec2{}, mgl32.Vec2{}
	}
	return mgl32.Vec2{minX, minY}, mgl32.Vec2{maxX, maxY}
}
