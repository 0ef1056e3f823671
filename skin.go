package spine

import "slices"

type skinKey struct {
	slot int
	name string
}

type SkinEntry struct {
	SlotIndex  int
	Name       string
	Attachment Attachment
}

// Skin 按 (slot, name) 存储附件，保持插入顺序以便 UpdateCache 的结果稳定
type Skin struct {
	Name        string
	Bones       []int
	Constraints []ConstraintData
	entries     []*SkinEntry
	index       map[skinKey]int
}

func NewSkin(name string) *Skin {
	return &Skin{Name: name, index: make(map[skinKey]int)}
}

func (s *Skin) SetAttachment(slot int, name string, attachment Attachment) {
	if attachment == nil {
		panic("attachment cannot be nil")
	}
	if s.index == nil {
		s.index = make(map[skinKey]int)
	}
	key := skinKey{slot: slot, name: name}
	if idx, ok := s.index[key]; ok {
		s.entries[idx].Attachment = attachment
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, &SkinEntry{SlotIndex: slot, Name: name, Attachment: attachment})
}

func (s *Skin) Attachment(slot int, name string) Attachment {
	if idx, ok := s.index[skinKey{slot: slot, name: name}]; ok {
		return s.entries[idx].Attachment
	}
	return nil
}

func (s *Skin) RemoveAttachment(slot int, name string) {
	key := skinKey{slot: slot, name: name}
	idx, ok := s.index[key]
	if !ok {
		return
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	delete(s.index, key)
	for i := idx; i < len(s.entries); i++ {
		entry := s.entries[i]
		s.index[skinKey{slot: entry.SlotIndex, name: entry.Name}] = i
	}
}

func (s *Skin) Attachments() []*SkinEntry {
	return s.entries
}

func (s *Skin) AttachmentsForSlot(slot int) []*SkinEntry {
	res := make([]*SkinEntry, 0)
	for _, entry := range s.entries {
		if entry.SlotIndex == slot {
			res = append(res, entry)
		}
	}
	return res
}

// AddSkin 合并另一个皮肤的骨骼 约束与附件
func (s *Skin) AddSkin(other *Skin) {
	for _, bone := range other.Bones {
		if !slices.Contains(s.Bones, bone) {
			s.Bones = append(s.Bones, bone)
		}
	}
	for _, constraint := range other.Constraints {
		if !slices.Contains(s.Constraints, constraint) {
			s.Constraints = append(s.Constraints, constraint)
		}
	}
	for _, entry := range other.entries {
		s.SetAttachment(entry.SlotIndex, entry.Name, entry.Attachment)
	}
}

// attachAll 换肤时，旧皮肤挂着的附件如果新皮肤有同名的就替换
func (s *Skin) attachAll(skeleton *Skeleton, oldSkin *Skin) {
	for _, entry := range oldSkin.entries {
		slot := skeleton.Slots[entry.SlotIndex]
		if slot.attachment != entry.Attachment {
			continue
		}
		if attachment := s.Attachment(entry.SlotIndex, entry.Name); attachment != nil {
			slot.SetAttachment(attachment)
		}
	}
}

// CopySkin 网格附件以链接网格的方式复制，deform 时间线仍作用于原网格，其他附件共享
func (s *Skin) CopySkin(other *Skin) {
	for _, bone := range other.Bones {
		if !slices.Contains(s.Bones, bone) {
			s.Bones = append(s.Bones, bone)
		}
	}
	for _, constraint := range other.Constraints {
		if !slices.Contains(s.Constraints, constraint) {
			s.Constraints = append(s.Constraints, constraint)
		}
	}
	for _, entry := range other.entries {
		attachment := entry.Attachment
		if mesh, ok := attachment.(*MeshAttachment); ok {
			attachment = mesh.NewLinkedMesh()
		}
		s.SetAttachment(entry.SlotIndex, entry.Name, attachment)
	}
}
