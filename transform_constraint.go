package spine

// TransformConstraint 把目标骨骼的旋转 位移 缩放 斜切按比例复制到约束骨骼上
type TransformConstraint struct {
	Data         *TransformConstraintData
	Bones        []int
	Target       int
	RotateMix    float32
	TranslateMix float32
	ScaleMix     float32
	ShearMix     float32

	skeleton *Skeleton
	active   bool
}

func NewTransformConstraint(data *TransformConstraintData, skeleton *Skeleton) *TransformConstraint {
	if data == nil || skeleton == nil {
		panic("transform constraint data and skeleton cannot be nil")
	}
	res := &TransformConstraint{Data: data, skeleton: skeleton, Target: data.Target}
	res.Bones = append(res.Bones, data.Bones...)
	res.SetToSetupPose()
	return res
}

func (c *TransformConstraint) ConstraintData() ConstraintData { return c.Data }

func (c *TransformConstraint) IsActive() bool { return c.active }

func (c *TransformConstraint) SetToSetupPose() {
	c.RotateMix = c.Data.RotateMix
	c.TranslateMix = c.Data.TranslateMix
	c.ScaleMix = c.Data.ScaleMix
	c.ShearMix = c.Data.ShearMix
}

func (c *TransformConstraint) Apply() {
	c.Update()
}

func (c *TransformConstraint) Update() {
	switch {
	case c.Data.Local && c.Data.Relative:
		c.applyRelativeLocal()
	case c.Data.Local:
		c.applyAbsoluteLocal()
	case c.Data.Relative:
		c.applyRelativeWorld()
	default:
		c.applyAbsoluteWorld()
	}
}

func (c *TransformConstraint) String() string {
	return c.Data.Name
}

func (c *TransformConstraint) applyAbsoluteWorld() {
	data := c.Data
	target := c.skeleton.Bones[c.Target]
	ta, tb, tc, td := target.A, target.B, target.C, target.D
	reflect := reflectDegRad(target)
	offsetRotation := data.OffsetRotation * reflect
	offsetShearY := data.OffsetShearY * reflect
	for _, idx := range c.Bones {
		bone := c.skeleton.Bones[idx]
		modified := false
		if c.RotateMix != 0 {
			rotateWorldRadians(bone, atan2(tc, ta)-atan2(bone.C, bone.A)+offsetRotation, c.RotateMix)
			modified = true
		}
		if c.TranslateMix != 0 {
			pos := target.LocalToWorld(vec2(data.OffsetX, data.OffsetY))
			bone.WorldX += (pos.X() - bone.WorldX) * c.TranslateMix
			bone.WorldY += (pos.Y() - bone.WorldY) * c.TranslateMix
			modified = true
		}
		if c.ScaleMix > 0 {
			s := sqrt(bone.A*bone.A + bone.C*bone.C)
			ts := sqrt(ta*ta + tc*tc)
			if s > epsilon {
				s = (s + (ts-s+data.OffsetScaleX)*c.ScaleMix) / s
			}
			bone.A *= s
			bone.C *= s
			s = sqrt(bone.B*bone.B + bone.D*bone.D)
			ts = sqrt(tb*tb + td*td)
			if s > epsilon {
				s = (s + (ts-s+data.OffsetScaleY)*c.ScaleMix) / s
			}
			bone.B *= s
			bone.D *= s
			modified = true
		}
		if c.ShearMix > 0 {
			b, d := bone.B, bone.D
			by := atan2(d, b)
			r := wrapRadians(atan2(td, tb) - atan2(tc, ta) - (by - atan2(bone.C, bone.A)))
			r = by + (r+offsetShearY)*c.ShearMix
			s := sqrt(b*b + d*d)
			bone.B = cos(r) * s
			bone.D = sin(r) * s
			modified = true
		}
		if modified {
			bone.AppliedValid = false
		}
	}
}

func (c *TransformConstraint) applyRelativeWorld() {
	data := c.Data
	target := c.skeleton.Bones[c.Target]
	ta, tb, tc, td := target.A, target.B, target.C, target.D
	reflect := reflectDegRad(target)
	offsetRotation := data.OffsetRotation * reflect
	offsetShearY := data.OffsetShearY * reflect
	for _, idx := range c.Bones {
		bone := c.skeleton.Bones[idx]
		modified := false
		if c.RotateMix != 0 {
			rotateWorldRadians(bone, atan2(tc, ta)+offsetRotation, c.RotateMix)
			modified = true
		}
		if c.TranslateMix != 0 {
			pos := target.LocalToWorld(vec2(data.OffsetX, data.OffsetY))
			bone.WorldX += pos.X() * c.TranslateMix
			bone.WorldY += pos.Y() * c.TranslateMix
			modified = true
		}
		if c.ScaleMix > 0 {
			s := (sqrt(ta*ta+tc*tc)-1+data.OffsetScaleX)*c.ScaleMix + 1
			bone.A *= s
			bone.C *= s
			s = (sqrt(tb*tb+td*td)-1+data.OffsetScaleY)*c.ScaleMix + 1
			bone.B *= s
			bone.D *= s
			modified = true
		}
		if c.ShearMix > 0 {
			r := wrapRadians(atan2(td, tb) - atan2(tc, ta))
			b, d := bone.B, bone.D
			r = atan2(d, b) + (r-pi/2+offsetShearY)*c.ShearMix
			s := sqrt(b*b + d*d)
			bone.B = cos(r) * s
			bone.D = sin(r) * s
			modified = true
		}
		if modified {
			bone.AppliedValid = false
		}
	}
}

func (c *TransformConstraint) applyAbsoluteLocal() {
	data := c.Data
	target := c.skeleton.Bones[c.Target]
	if !target.AppliedValid {
		target.UpdateAppliedTransform()
	}
	for _, idx := range c.Bones {
		bone := c.skeleton.Bones[idx]
		if !bone.AppliedValid {
			bone.UpdateAppliedTransform()
		}
		rotation := bone.ARotation
		if c.RotateMix != 0 {
			rotation += wrapDegrees(target.ARotation-rotation+data.OffsetRotation) * c.RotateMix
		}
		x, y := bone.AX, bone.AY
		if c.TranslateMix != 0 {
			x += (target.AX - x + data.OffsetX) * c.TranslateMix
			y += (target.AY - y + data.OffsetY) * c.TranslateMix
		}
		scaleX, scaleY := bone.AScaleX, bone.AScaleY
		if c.ScaleMix != 0 {
			scaleX += (target.AScaleX - scaleX + data.OffsetScaleX) * c.ScaleMix
			scaleY += (target.AScaleY - scaleY + data.OffsetScaleY) * c.ScaleMix
		}
		shearY := bone.AShearY
		if c.ShearMix != 0 {
			shearY += wrapDegrees(target.AShearY-shearY+data.OffsetShearY) * c.ShearMix
		}
		bone.UpdateWorldTransformWith(x, y, rotation, scaleX, scaleY, bone.AShearX, shearY)
	}
}

func (c *TransformConstraint) applyRelativeLocal() {
	data := c.Data
	target := c.skeleton.Bones[c.Target]
	if !target.AppliedValid {
		target.UpdateAppliedTransform()
	}
	for _, idx := range c.Bones {
		bone := c.skeleton.Bones[idx]
		if !bone.AppliedValid {
			bone.UpdateAppliedTransform()
		}
		rotation := bone.ARotation
		if c.RotateMix != 0 {
			rotation += (target.ARotation + data.OffsetRotation) * c.RotateMix
		}
		x, y := bone.AX, bone.AY
		if c.TranslateMix != 0 {
			x += (target.AX + data.OffsetX) * c.TranslateMix
			y += (target.AY + data.OffsetY) * c.TranslateMix
		}
		scaleX, scaleY := bone.AScaleX, bone.AScaleY
		if c.ScaleMix != 0 {
			scaleX *= (target.AScaleX-1+data.OffsetScaleX)*c.ScaleMix + 1
			scaleY *= (target.AScaleY-1+data.OffsetScaleY)*c.ScaleMix + 1
		}
		shearY := bone.AShearY
		if c.ShearMix != 0 {
			shearY += (target.AShearY + data.OffsetShearY) * c.ShearMix
		}
		bone.UpdateWorldTransformWith(x, y, rotation, scaleX, scaleY, bone.AShearX, shearY)
	}
}
