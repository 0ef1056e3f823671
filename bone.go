package spine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Updatable UpdateCache 中的元素，骨骼或约束
type Updatable interface {
	Update()
	IsActive() bool
}

// Bone 父子关系只保存下标，骨骼本身由 Skeleton.Bones 持有
type Bone struct {
	Data     *BoneData
	skeleton *Skeleton
	parent   int
	children []int
	// 局部 pose，由时间线写入
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32
	// 最近一次计算世界矩阵时实际使用的局部值，约束通过它反推局部 pose
	AX, AY       float32
	ARotation    float32
	AScaleX      float32
	AScaleY      float32
	AShearX      float32
	AShearY      float32
	AppliedValid bool
	// 世界仿射矩阵 [A B WorldX; C D WorldY]
	A, B, C, D float32
	WorldX     float32
	WorldY     float32

	sorted, active bool
}

func newBone(data *BoneData, skeleton *Skeleton) *Bone {
	res := &Bone{Data: data, skeleton: skeleton, parent: data.Parent}
	res.SetToSetupPose()
	return res
}

func (b *Bone) Update() {
	b.UpdateWorldTransformWith(b.X, b.Y, b.Rotation, b.ScaleX, b.ScaleY, b.ShearX, b.ShearY)
}

func (b *Bone) IsActive() bool {
	return b.active
}

func (b *Bone) Skeleton() *Skeleton {
	return b.skeleton
}

func (b *Bone) Parent() *Bone {
	if b.parent < 0 {
		return nil
	}
	return b.skeleton.Bones[b.parent]
}

func (b *Bone) ParentIndex() int {
	return b.parent
}

func (b *Bone) Children() []int {
	return b.children
}

// UpdateWorldTransform 使用当前局部 pose 计算世界矩阵
func (b *Bone) UpdateWorldTransform() {
	b.Update()
}

func (b *Bone) UpdateWorldTransformWith(x, y, rotation, scaleX, scaleY, shearX, shearY float32) {
	b.AX, b.AY = x, y
	b.ARotation = rotation
	b.AScaleX, b.AScaleY = scaleX, scaleY
	b.AShearX, b.AShearY = shearX, shearY
	b.AppliedValid = true

	skeleton := b.skeleton
	sx, sy := skeleton.ScaleX, skeleton.ScaleY
	parent := b.Parent()
	if parent == nil { // 根骨骼
		rotationY := rotation + 90 + shearY
		b.A = cosDeg(rotation+shearX) * scaleX * sx
		b.B = cosDeg(rotationY) * scaleY * sx
		b.C = sinDeg(rotation+shearX) * scaleX * sy
		b.D = sinDeg(rotationY) * scaleY * sy
		b.WorldX = x*sx + skeleton.X
		b.WorldY = y*sy + skeleton.Y
		return
	}

	pa, pb, pc, pd := parent.A, parent.B, parent.C, parent.D
	b.WorldX = pa*x + pb*y + parent.WorldX
	b.WorldY = pc*x + pd*y + parent.WorldY

	switch b.Data.TransformMode {
	case TransformNormal:
		rotationY := rotation + 90 + shearY
		la := cosDeg(rotation+shearX) * scaleX
		lb := cosDeg(rotationY) * scaleY
		lc := sinDeg(rotation+shearX) * scaleX
		ld := sinDeg(rotationY) * scaleY
		b.A = pa*la + pb*lc
		b.B = pa*lb + pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld
		return // 父矩阵已经包含了骨架缩放
	case TransformOnlyTranslation:
		rotationY := rotation + 90 + shearY
		b.A = cosDeg(rotation+shearX) * scaleX
		b.B = cosDeg(rotationY) * scaleY
		b.C = sinDeg(rotation+shearX) * scaleX
		b.D = sinDeg(rotationY) * scaleY
	case TransformNoRotationOrReflection:
		s := pa*pa + pc*pc
		var prx float32
		if s > 0.0001 {
			s = mgl32.Abs(pa*pd-pb*pc) / s
			pa /= sx
			pc /= sy
			pb = pc * s
			pd = pa * s
			prx = atan2(pc, pa) * radDeg
		} else {
			pa = 0
			pc = 0
			prx = 90 - atan2(pd, pb)*radDeg
		}
		rx := rotation + shearX - prx
		ry := rotation + shearY - prx + 90
		la := cosDeg(rx) * scaleX
		lb := cosDeg(ry) * scaleY
		lc := sinDeg(rx) * scaleX
		ld := sinDeg(ry) * scaleY
		b.A = pa*la - pb*lc
		b.B = pa*lb - pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld
	case TransformNoScale, TransformNoScaleOrReflection:
		c, s := cosDeg(rotation), sinDeg(rotation)
		za := (pa*c + pb*s) / sx
		zc := (pc*c + pd*s) / sy
		l := sqrt(za*za + zc*zc)
		if l > 0.00001 {
			l = 1 / l
		}
		za *= l
		zc *= l
		l = sqrt(za*za + zc*zc)
		if b.Data.TransformMode == TransformNoScale && (pa*pd-pb*pc < 0) != ((sx < 0) != (sy < 0)) {
			l = -l
		}
		r := pi/2 + atan2(zc, za)
		zb := cos(r) * l
		zd := sin(r) * l
		la := cosDeg(shearX) * scaleX
		lb := cosDeg(90+shearY) * scaleY
		lc := sinDeg(shearX) * scaleX
		ld := sinDeg(90+shearY) * scaleY
		b.A = za*la + zb*lc
		b.B = za*lb + zb*ld
		b.C = zc*la + zd*lc
		b.D = zc*lb + zd*ld
	default:
		panic(fmt.Sprintf("invalid transform mode: %v", b.Data.TransformMode))
	}
	b.A *= sx
	b.B *= sx
	b.C *= sy
	b.D *= sy
}

func (b *Bone) SetToSetupPose() {
	data := b.Data
	b.X, b.Y = data.X, data.Y
	b.Rotation = data.Rotation
	b.ScaleX, b.ScaleY = data.ScaleX, data.ScaleY
	b.ShearX, b.ShearY = data.ShearX, data.ShearY
}

// UpdateAppliedTransform 由世界矩阵反推局部值，约束直接修改世界矩阵后需要调用
func (b *Bone) UpdateAppliedTransform() {
	b.AppliedValid = true
	parent := b.Parent()
	if parent == nil {
		b.AX, b.AY = b.WorldX, b.WorldY
		b.ARotation = atan2(b.C, b.A) * radDeg
		b.AScaleX = sqrt(b.A*b.A + b.C*b.C)
		b.AScaleY = sqrt(b.B*b.B + b.D*b.D)
		b.AShearX = 0
		b.AShearY = atan2(b.A*b.B+b.C*b.D, b.A*b.D-b.B*b.C) * radDeg
		return
	}
	pa, pb, pc, pd := parent.A, parent.B, parent.C, parent.D
	pid := 1 / (pa*pd - pb*pc)
	dx, dy := b.WorldX-parent.WorldX, b.WorldY-parent.WorldY
	b.AX = dx*pd*pid - dy*pb*pid
	b.AY = dy*pa*pid - dx*pc*pid
	ia := pid * pd
	id := pid * pa
	ib := pid * pb
	ic := pid * pc
	ra := ia*b.A - ib*b.C
	rb := ia*b.B - ib*b.D
	rc := id*b.C - ic*b.A
	rd := id*b.D - ic*b.B
	b.AShearX = 0
	b.AScaleX = sqrt(ra*ra + rc*rc)
	if b.AScaleX > 0.0001 {
		det := ra*rd - rb*rc
		b.AScaleY = det / b.AScaleX
		b.AShearY = atan2(ra*rb+rc*rd, det) * radDeg
		b.ARotation = atan2(rc, ra) * radDeg
	} else {
		b.AScaleX = 0
		b.AScaleY = sqrt(rb*rb + rd*rd)
		b.AShearY = 0
		b.ARotation = 90 - atan2(rd, rb)*radDeg
	}
}

func (b *Bone) WorldRotationX() float32 {
	return atan2(b.C, b.A) * radDeg
}

func (b *Bone) WorldRotationY() float32 {
	return atan2(b.D, b.B) * radDeg
}

func (b *Bone) WorldScaleX() float32 {
	return sqrt(b.A*b.A + b.C*b.C)
}

func (b *Bone) WorldScaleY() float32 {
	return sqrt(b.B*b.B + b.D*b.D)
}

func (b *Bone) WorldToLocal(world mgl32.Vec2) mgl32.Vec2 {
	invDet := 1 / (b.A*b.D - b.B*b.C)
	x, y := world.X()-b.WorldX, world.Y()-b.WorldY
	return mgl32.Vec2{x*b.D*invDet - y*b.B*invDet, y*b.A*invDet - x*b.C*invDet}
}

func (b *Bone) LocalToWorld(local mgl32.Vec2) mgl32.Vec2 {
	x, y := local.X(), local.Y()
	return mgl32.Vec2{x*b.A + y*b.B + b.WorldX, x*b.C + y*b.D + b.WorldY}
}

func (b *Bone) WorldToLocalRotation(worldRotation float32) float32 {
	s, c := sinDeg(worldRotation), cosDeg(worldRotation)
	return atan2(b.A*s-b.C*c, b.D*c-b.B*s)*radDeg + b.Rotation - b.ShearX
}

func (b *Bone) LocalToWorldRotation(localRotation float32) float32 {
	localRotation -= b.Rotation - b.ShearX
	s, c := sinDeg(localRotation), cosDeg(localRotation)
	return atan2(c*b.C+s*b.D, c*b.A+s*b.B) * radDeg
}

// RotateWorld 直接旋转世界矩阵，之后 applied 值失效
func (b *Bone) RotateWorld(degrees float32) {
	c, s := cosDeg(degrees), sinDeg(degrees)
	a, bb, cc, d := b.A, b.B, b.C, b.D
	b.A = c*a - s*cc
	b.B = c*bb - s*d
	b.C = s*a + c*cc
	b.D = s*bb + c*d
	b.AppliedValid = false
}

// WorldMat3 渲染使用的仿射矩阵
func (b *Bone) WorldMat3() mgl32.Mat3 {
	return mgl32.Mat3{
		b.A, b.C, 0,
		b.B, b.D, 0,
		b.WorldX, b.WorldY, 1,
	}
}

func (b *Bone) String() string {
	return b.Data.Name
}
