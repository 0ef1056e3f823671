package spine

import "github.com/go-gl/mathgl/mgl32"

// IkConstraint 让 1 或 2 根骨骼的末端指向目标骨骼
type IkConstraint struct {
	Data          *IkConstraintData
	Bones         []int
	Target        int
	Mix           float32
	BendDirection int
	Compress      bool
	Stretch       bool

	skeleton *Skeleton
	active   bool
}

func NewIkConstraint(data *IkConstraintData, skeleton *Skeleton) *IkConstraint {
	if data == nil || skeleton == nil {
		panic("ik constraint data and skeleton cannot be nil")
	}
	res := &IkConstraint{Data: data, skeleton: skeleton, Target: data.Target}
	res.Bones = append(res.Bones, data.Bones...)
	res.SetToSetupPose()
	return res
}

func (c *IkConstraint) ConstraintData() ConstraintData { return c.Data }

func (c *IkConstraint) IsActive() bool { return c.active }

func (c *IkConstraint) SetToSetupPose() {
	c.Mix = c.Data.Mix
	c.BendDirection = c.Data.BendDirection
	c.Compress = c.Data.Compress
	c.Stretch = c.Data.Stretch
}

func (c *IkConstraint) Apply() {
	c.Update()
}

func (c *IkConstraint) Update() {
	bones := c.skeleton.Bones
	target := bones[c.Target]
	switch len(c.Bones) {
	case 1:
		ApplyIkOne(bones[c.Bones[0]], target.WorldX, target.WorldY, c.Compress, c.Stretch, c.Data.Uniform, c.Mix)
	case 2:
		ApplyIkTwo(bones[c.Bones[0]], bones[c.Bones[1]], target.WorldX, target.WorldY, c.BendDirection, c.Stretch, c.Mix)
	}
}

func (c *IkConstraint) String() string {
	return c.Data.Name
}

// parentFrame 根骨骼没有父骨骼，使用单位矩阵
func parentFrame(bone *Bone) (a, b, c, d, x, y float32) {
	if parent := bone.Parent(); parent != nil {
		return parent.A, parent.B, parent.C, parent.D, parent.WorldX, parent.WorldY
	}
	return 1, 0, 0, 1, 0, 0
}

// ApplyIkOne 旋转单根骨骼使其 x 轴指向目标，compress/stretch 时沿 x 轴缩放
func ApplyIkOne(bone *Bone, targetX, targetY float32, compress, stretch, uniform bool, alpha float32) {
	if !bone.AppliedValid {
		bone.UpdateAppliedTransform()
	}
	pa, pb, pc, pd, px, py := parentFrame(bone)
	id := 1 / (pa*pd - pb*pc)
	x, y := targetX-px, targetY-py
	tx := (x*pd-y*pb)*id - bone.AX
	ty := (y*pa-x*pc)*id - bone.AY
	rotationIK := atan2(ty, tx)*radDeg - bone.AShearX - bone.ARotation
	if bone.AScaleX < 0 {
		rotationIK += 180
	}
	if rotationIK > 180 {
		rotationIK -= 360
	} else if rotationIK < -180 {
		rotationIK += 360
	}
	sx, sy := bone.AScaleX, bone.AScaleY
	if compress || stretch {
		b := bone.Data.Length * sx
		dd := sqrt(tx*tx + ty*ty)
		if ((compress && dd < b) || (stretch && dd > b)) && b > 0.0001 {
			s := (dd/b-1)*alpha + 1
			sx *= s
			if uniform {
				sy *= s
			}
		}
	}
	bone.UpdateWorldTransformWith(bone.AX, bone.AY, bone.ARotation+rotationIK*alpha, sx, sy, bone.AShearX, bone.AShearY)
}

// ApplyIkTwo 两根骨骼的解析解，bendDir 取 1 或 -1 选择肘部方向
func ApplyIkTwo(parent, child *Bone, targetX, targetY float32, bendDir int, stretch bool, alpha float32) {
	if alpha == 0 {
		child.UpdateWorldTransform()
		return
	}
	if !parent.AppliedValid {
		parent.UpdateAppliedTransform()
	}
	if !child.AppliedValid {
		child.UpdateAppliedTransform()
	}
	px, py := parent.AX, parent.AY
	psx, psy := parent.AScaleX, parent.AScaleY
	sx, csx := psx, child.AScaleX
	var os1, os2 float32
	s2 := float32(1)
	if psx < 0 {
		psx = -psx
		os1 = 180
		s2 = -1
	}
	if psy < 0 {
		psy = -psy
		s2 = -s2
	}
	if csx < 0 {
		csx = -csx
		os2 = 180
	}
	cx := child.AX
	var cy, cwx, cwy float32
	a, b, c, d := parent.A, parent.B, parent.C, parent.D
	u := mgl32.Abs(psx-psy) <= 0.0001
	if !u {
		cy = 0
		cwx = a*cx + parent.WorldX
		cwy = c*cx + parent.WorldY
	} else {
		cy = child.AY
		cwx = a*cx + b*cy + parent.WorldX
		cwy = c*cx + d*cy + parent.WorldY
	}
	var ppx, ppy float32
	a, b, c, d, ppx, ppy = parentFrame(parent)
	id := 1 / (a*d - b*c)
	x, y := targetX-ppx, targetY-ppy
	tx := (x*d-y*b)*id - px
	ty := (y*a-x*c)*id - py
	dd := tx*tx + ty*ty
	x, y = cwx-ppx, cwy-ppy
	dx := (x*d-y*b)*id - px
	dy := (y*a-x*c)*id - py
	l1 := sqrt(dx*dx + dy*dy)
	l2 := child.Data.Length * csx
	if l1 < 0.0001 {
		ApplyIkOne(parent, targetX, targetY, false, stretch, false, alpha)
		child.UpdateWorldTransformWith(cx, cy, 0, child.AScaleX, child.AScaleY, child.AShearX, child.AShearY)
		return
	}
	bend := float32(bendDir)
	var a1, a2 float32
	if u {
		l2 *= psx
		cosine := float32(1)
		if denom := 2 * l1 * l2; denom > 0.0001 {
			cosine = (dd - l1*l1 - l2*l2) / denom
		}
		if cosine < -1 {
			cosine = -1
		} else if cosine > 1 {
			cosine = 1
			if stretch && l1+l2 > 0.0001 {
				sx *= (sqrt(dd)/(l1+l2)-1)*alpha + 1
			}
		}
		a2 = acos(cosine) * bend
		a = l1 + l2*cosine
		b = l2 * sin(a2)
		a1 = atan2(ty*a-tx*b, tx*a+ty*b)
	} else {
		a1, a2 = solveIkEllipse(l1, l2, psx, psy, tx, ty, dd, bend)
	}
	offset := atan2(cy, cx) * s2
	rotation := parent.ARotation
	a1 = wrap180((a1-offset)*radDeg + os1 - rotation)
	parent.UpdateWorldTransformWith(px, py, rotation+a1*alpha, sx, parent.AScaleY, 0, 0)
	rotation = child.ARotation
	a2 = wrap180(((a2+offset)*radDeg-child.AShearX)*s2 + os2 - rotation)
	child.UpdateWorldTransformWith(cx, cy, rotation+a2*alpha, child.AScaleX, child.AScaleY, child.AShearX, child.AShearY)
}

// solveIkEllipse 父骨骼非等比缩放时子骨骼末端的轨迹是椭圆，先解二次方程，无解时取最近或最远点
func solveIkEllipse(l1, l2, psx, psy, tx, ty, dd, bend float32) (a1, a2 float32) {
	a := psx * l2
	b := psy * l2
	aa, bb := a*a, b*b
	ta := atan2(ty, tx)
	c := bb*l1*l1 + aa*dd - aa*bb
	c1 := -2 * bb * l1
	c2 := bb - aa
	d := c1*c1 - 4*c2*c
	if d >= 0 {
		q := sqrt(d)
		if c1 < 0 {
			q = -q
		}
		q = -(c1 + q) / 2
		r0, r1 := q/c2, c/q
		r := r1
		if mgl32.Abs(r0) < mgl32.Abs(r1) {
			r = r0
		}
		if r*r <= dd {
			y := sqrt(dd-r*r) * bend
			return ta - atan2(y, r), atan2(y/psy, (r-l1)/psx)
		}
	}
	minAngle, minX, minY := pi, l1-a, float32(0)
	minDist := minX * minX
	maxAngle, maxX, maxY := float32(0), l1+a, float32(0)
	maxDist := maxX * maxX
	c = -a * l1 / (aa - bb)
	if c >= -1 && c <= 1 {
		c = acos(c)
		x := a*cos(c) + l1
		y := b * sin(c)
		d = x*x + y*y
		if d < minDist {
			minAngle, minDist, minX, minY = c, d, x, y
		}
		if d > maxDist {
			maxAngle, maxDist, maxX, maxY = c, d, x, y
		}
	}
	if dd <= (minDist+maxDist)/2 {
		return ta - atan2(minY*bend, minX), minAngle * bend
	}
	return ta - atan2(maxY*bend, maxX), maxAngle * bend
}

func wrap180(r float32) float32 {
	if r > 180 {
		return r - 360
	}
	if r < -180 {
		return r + 360
	}
	return r
}
