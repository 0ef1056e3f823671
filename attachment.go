package spine

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

type Attachment interface {
	Name() string
	Type() AttachmentType
}

type attachmentName struct {
	name string
}

func (a *attachmentName) Name() string { return a.name }

// RegionAttachment 一张贴图，四个角在骨骼坐标系下预先算好
type RegionAttachment struct {
	attachmentName
	Path     string
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	Width    float32
	Height   float32
	Color    mgl32.Vec4
	Offset   [8]float32 // BL TL TR BR
}

func NewRegionAttachment(name string) *RegionAttachment {
	return &RegionAttachment{attachmentName: attachmentName{name: name}, ScaleX: 1, ScaleY: 1, Color: mgl32.Vec4{1, 1, 1, 1}}
}

func (r *RegionAttachment) Type() AttachmentType { return AttachmentRegion }

// UpdateOffset 修改 X Y Rotation Scale 或尺寸后需要调用
func (r *RegionAttachment) UpdateOffset() {
	localX2 := r.Width / 2 * r.ScaleX
	localY2 := r.Height / 2 * r.ScaleY
	localX := -localX2
	localY := -localY2
	c := cosDeg(r.Rotation)
	s := sinDeg(r.Rotation)
	localXCos := localX*c + r.X
	localXSin := localX * s
	localYCos := localY*c + r.Y
	localYSin := localY * s
	localX2Cos := localX2*c + r.X
	localX2Sin := localX2 * s
	localY2Cos := localY2*c + r.Y
	localY2Sin := localY2 * s
	r.Offset[0] = localXCos - localYSin
	r.Offset[1] = localYCos + localXSin
	r.Offset[2] = localXCos - localY2Sin
	r.Offset[3] = localY2Cos + localXSin
	r.Offset[4] = localX2Cos - localY2Sin
	r.Offset[5] = localY2Cos + localX2Sin
	r.Offset[6] = localX2Cos - localYSin
	r.Offset[7] = localYCos + localX2Sin
}

// ComputeWorldVertices 写入 4 个顶点，每个顶点占 stride 个 float
func (r *RegionAttachment) ComputeWorldVertices(bone *Bone, out []float32, offset, stride int) {
	for i := 0; i < 4; i++ {
		ox, oy := r.Offset[i*2], r.Offset[i*2+1]
		out[offset] = ox*bone.A + oy*bone.B + bone.WorldX
		out[offset+1] = ox*bone.C + oy*bone.D + bone.WorldY
		offset += stride
	}
}

var nextVertexAttachmentID atomic.Int32

// VertexAttachment 权重顶点格式: 每个顶点 [boneCount, (bone, x, y, weight)...]
// Bones 为空时 Vertices 就是骨骼坐标系下的 x y
type VertexAttachment struct {
	attachmentName
	ID                  int32
	Bones               []int
	Vertices            []float32
	WorldVerticesLength int
}

func newVertexAttachment(name string) VertexAttachment {
	return VertexAttachment{attachmentName: attachmentName{name: name}, ID: nextVertexAttachmentID.Add(1) & 0x7FF}
}

func (v *VertexAttachment) vertexData() *VertexAttachment { return v }

// applyDeform 只有同一个附件的 deform 时间线才能作用于它
func (v *VertexAttachment) applyDeform(source Attachment) bool {
	other, ok := source.(vertexAttachment)
	return ok && other.vertexData() == v
}

type vertexAttachment interface {
	Attachment
	vertexData() *VertexAttachment
	applyDeform(source Attachment) bool
}

// ComputeWorldVertices 把 [start, start+count) 区间的局部顶点转换到世界坐标
func (v *VertexAttachment) ComputeWorldVertices(slot *Slot, start, count int, out []float32, offset, stride int) {
	count = offset + (count>>1)*stride
	skeleton := slot.skeleton
	deform := slot.Deform
	vertices := v.Vertices
	if len(v.Bones) == 0 {
		if len(deform) > 0 {
			vertices = deform
		}
		bone := slot.Bone()
		for vi, w := start, offset; w < count; vi, w = vi+2, w+stride {
			vx, vy := vertices[vi], vertices[vi+1]
			out[w] = vx*bone.A + vy*bone.B + bone.WorldX
			out[w+1] = vx*bone.C + vy*bone.D + bone.WorldY
		}
		return
	}
	vi, skip := 0, 0
	for i := 0; i < start; i += 2 {
		n := v.Bones[vi]
		vi += n + 1
		skip += n
	}
	bones := skeleton.Bones
	if len(deform) == 0 {
		for w, b := offset, skip*3; w < count; w += stride {
			var wx, wy float32
			n := v.Bones[vi] + vi + 1
			vi++
			for ; vi < n; vi, b = vi+1, b+3 {
				bone := bones[v.Bones[vi]]
				vx, vy, weight := vertices[b], vertices[b+1], vertices[b+2]
				wx += (vx*bone.A + vy*bone.B + bone.WorldX) * weight
				wy += (vx*bone.C + vy*bone.D + bone.WorldY) * weight
			}
			out[w] = wx
			out[w+1] = wy
		}
		return
	}
	for w, b, f := offset, skip*3, skip<<1; w < count; w += stride {
		var wx, wy float32
		n := v.Bones[vi] + vi + 1
		vi++
		for ; vi < n; vi, b, f = vi+1, b+3, f+2 {
			bone := bones[v.Bones[vi]]
			vx, vy, weight := vertices[b]+deform[f], vertices[b+1]+deform[f+1], vertices[b+2]
			wx += (vx*bone.A + vy*bone.B + bone.WorldX) * weight
			wy += (vx*bone.C + vy*bone.D + bone.WorldY) * weight
		}
		out[w] = wx
		out[w+1] = wy
	}
}

type MeshAttachment struct {
	VertexAttachment
	Path          string
	Color         mgl32.Vec4
	UVs           []float32
	Triangles     []uint16
	HullLength    int
	InheritDeform bool
	parentMesh    *MeshAttachment
}

func NewMeshAttachment(name string) *MeshAttachment {
	return &MeshAttachment{VertexAttachment: newVertexAttachment(name), Color: mgl32.Vec4{1, 1, 1, 1}}
}

func (m *MeshAttachment) Type() AttachmentType {
	if m.parentMesh != nil {
		return AttachmentLinkedMesh
	}
	return AttachmentMesh
}

func (m *MeshAttachment) ParentMesh() *MeshAttachment { return m.parentMesh }

// SetParentMesh 链接网格共享父网格的顶点数据
func (m *MeshAttachment) SetParentMesh(parent *MeshAttachment) {
	m.parentMesh = parent
	if parent == nil {
		return
	}
	m.Bones = parent.Bones
	m.Vertices = parent.Vertices
	m.WorldVerticesLength = parent.WorldVerticesLength
	m.UVs = parent.UVs
	m.Triangles = parent.Triangles
	m.HullLength = parent.HullLength
}

// NewLinkedMesh 共享顶点数据的副本，继承原网格的 deform
func (m *MeshAttachment) NewLinkedMesh() *MeshAttachment {
	res := NewMeshAttachment(m.Name())
	res.Path = m.Path
	res.Color = m.Color
	res.InheritDeform = true
	if m.parentMesh != nil {
		res.SetParentMesh(m.parentMesh)
	} else {
		res.SetParentMesh(m)
	}
	return res
}

func (m *MeshAttachment) applyDeform(source Attachment) bool {
	if m.VertexAttachment.applyDeform(source) {
		return true
	}
	return m.InheritDeform && m.parentMesh != nil && m.parentMesh.applyDeform(source)
}

type BoundingBoxAttachment struct {
	VertexAttachment
}

func NewBoundingBoxAttachment(name string) *BoundingBoxAttachment {
	return &BoundingBoxAttachment{VertexAttachment: newVertexAttachment(name)}
}

func (b *BoundingBoxAttachment) Type() AttachmentType { return AttachmentBoundingBox }

// PathAttachment 每段曲线 3 个点: 入控制点 端点 出控制点
type PathAttachment struct {
	VertexAttachment
	Closed        bool
	ConstantSpeed bool
	Lengths       []float32 // 每段曲线末端的累计长度
}

func NewPathAttachment(name string) *PathAttachment {
	return &PathAttachment{VertexAttachment: newVertexAttachment(name)}
}

func (p *PathAttachment) Type() AttachmentType { return AttachmentPath }

type ClippingAttachment struct {
	VertexAttachment
	EndSlot int // 作用范围 从所在 slot 到 EndSlot 两头都包含
}

func NewClippingAttachment(name string) *ClippingAttachment {
	return &ClippingAttachment{VertexAttachment: newVertexAttachment(name), EndSlot: -1}
}

func (c *ClippingAttachment) Type() AttachmentType { return AttachmentClipping }

type PointAttachment struct {
	attachmentName
	X, Y     float32
	Rotation float32
}

func NewPointAttachment(name string) *PointAttachment {
	return &PointAttachment{attachmentName: attachmentName{name: name}}
}

func (p *PointAttachment) Type() AttachmentType { return AttachmentPoint }

func (p *PointAttachment) ComputeWorldPosition(bone *Bone) mgl32.Vec2 {
	return mgl32.Vec2{p.X*bone.A + p.Y*bone.B + bone.WorldX, p.X*bone.C + p.Y*bone.D + bone.WorldY}
}

func (p *PointAttachment) ComputeWorldRotation(bone *Bone) float32 {
	c, s := cosDeg(p.Rotation), sinDeg(p.Rotation)
	x := c*bone.A + s*bone.B
	y := c*bone.C + s*bone.D
	return atan2(y, x) * radDeg
}
