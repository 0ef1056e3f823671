package spine

import "github.com/go-gl/mathgl/mgl32"

type Slot struct {
	Data           *SlotData
	skeleton       *Skeleton
	bone           int
	Color          mgl32.Vec4
	DarkColor      mgl32.Vec4
	attachment     Attachment
	attachmentTime float32
	Deform         []float32 // deform 时间线写入的顶点，为空时使用附件原始顶点
}

func newSlot(data *SlotData, skeleton *Skeleton) *Slot {
	res := &Slot{Data: data, skeleton: skeleton, bone: data.Bone}
	res.SetToSetupPose()
	return res
}

func (s *Slot) Skeleton() *Skeleton {
	return s.skeleton
}

func (s *Slot) Bone() *Bone {
	return s.skeleton.Bones[s.bone]
}

func (s *Slot) Attachment() Attachment {
	return s.attachment
}

// SetAttachment 切换附件会清空 deform，相同附件不做任何事
func (s *Slot) SetAttachment(attachment Attachment) {
	if s.attachment == attachment {
		return
	}
	s.attachment = attachment
	s.attachmentTime = s.skeleton.Time
	s.Deform = s.Deform[:0]
}

// AttachmentTime 当前附件已经挂了多久
func (s *Slot) AttachmentTime() float32 {
	return s.skeleton.Time - s.attachmentTime
}

func (s *Slot) SetAttachmentTime(time float32) {
	s.attachmentTime = s.skeleton.Time - time
}

func (s *Slot) SetToSetupPose() {
	s.Color = s.Data.Color
	if s.Data.HasDarkColor {
		s.DarkColor = s.Data.DarkColor
	}
	if s.Data.AttachmentName == "" {
		s.SetAttachment(nil)
		return
	}
	s.attachment = nil
	s.SetAttachment(s.skeleton.Attachment(s.Data.Index, s.Data.AttachmentName))
}

func (s *Slot) String() string {
	return s.Data.Name
}
