package spine

import "math"

const (
	pathNone   = -1
	pathBefore = -2
	pathAfter  = -3
)

// PathConstraint 让骨骼沿着 PathAttachment 描述的曲线排列
type PathConstraint struct {
	Data         *PathConstraintData
	Bones        []int
	Target       int // slot 下标
	Position     float32
	Spacing      float32
	RotateMix    float32
	TranslateMix float32

	skeleton  *Skeleton
	active    bool
	spaces    []float32
	positions []float32
	world     []float32
	curves    []float32
	lengths   []float32
	segments  [10]float32
}

func NewPathConstraint(data *PathConstraintData, skeleton *Skeleton) *PathConstraint {
	if data == nil || skeleton == nil {
		panic("path constraint data and skeleton cannot be nil")
	}
	res := &PathConstraint{Data: data, skeleton: skeleton, Target: data.Target}
	res.Bones = append(res.Bones, data.Bones...)
	res.SetToSetupPose()
	return res
}

func (c *PathConstraint) ConstraintData() ConstraintData { return c.Data }

func (c *PathConstraint) IsActive() bool { return c.active }

func (c *PathConstraint) SetToSetupPose() {
	c.Position = c.Data.Position
	c.Spacing = c.Data.Spacing
	c.RotateMix = c.Data.RotateMix
	c.TranslateMix = c.Data.TranslateMix
}

func (c *PathConstraint) Apply() {
	c.Update()
}

func (c *PathConstraint) String() string {
	return c.Data.Name
}

func (c *PathConstraint) Update() {
	target := c.skeleton.Slots[c.Target]
	path, ok := target.attachment.(*PathAttachment)
	if !ok {
		return
	}
	rotateMix, translateMix := c.RotateMix, c.TranslateMix
	rotate := rotateMix > 0
	if translateMix <= 0 && !rotate {
		return
	}

	data := c.Data
	bones := c.skeleton.Bones
	percentSpacing := data.SpacingMode == SpacingPercent
	tangents := data.RotateMode == RotateTangent
	scale := data.RotateMode == RotateChainScale
	boneCount := len(c.Bones)
	spacesCount := boneCount + 1
	if tangents {
		spacesCount = boneCount
	}
	c.spaces = grow(c.spaces, spacesCount)
	spaces := c.spaces
	spaces[0] = 0
	var lengths []float32
	if scale {
		c.lengths = grow(c.lengths, boneCount)
		lengths = c.lengths
	}
	spacing := c.Spacing
	if scale || !percentSpacing {
		lengthSpacing := data.SpacingMode == SpacingLength
		for i, n := 0, spacesCount-1; i < n; {
			bone := bones[c.Bones[i]]
			setupLength := bone.Data.Length
			if setupLength < epsilon {
				if scale {
					lengths[i] = 0
				}
				i++
				spaces[i] = 0
				continue
			}
			x, y := setupLength*bone.A, setupLength*bone.C
			length := sqrt(x*x + y*y)
			if scale {
				lengths[i] = length
			}
			i++
			switch {
			case percentSpacing:
				spaces[i] = spacing
			case lengthSpacing:
				spaces[i] = (setupLength + spacing) * length / setupLength
			default:
				spaces[i] = spacing * length / setupLength
			}
		}
	} else {
		for i := 1; i < spacesCount; i++ {
			spaces[i] = spacing
		}
	}

	positions := c.computeWorldPositions(path, spacesCount, tangents, data.PositionMode == PositionPercent, percentSpacing)
	boneX, boneY := positions[0], positions[1]
	offsetRotation := data.OffsetRotation
	tip := false
	if offsetRotation == 0 {
		tip = data.RotateMode == RotateChain
	} else {
		offsetRotation *= reflectDegRad(target.Bone())
	}
	for i, p := 0, 3; i < boneCount; i, p = i+1, p+3 {
		bone := bones[c.Bones[i]]
		bone.WorldX += (boneX - bone.WorldX) * translateMix
		bone.WorldY += (boneY - bone.WorldY) * translateMix
		x, y := positions[p], positions[p+1]
		dx, dy := x-boneX, y-boneY
		if scale {
			if length := lengths[i]; length != 0 {
				s := (sqrt(dx*dx+dy*dy)/length-1)*rotateMix + 1
				bone.A *= s
				bone.C *= s
			}
		}
		boneX, boneY = x, y
		if rotate {
			a, cc := bone.A, bone.C
			var r float32
			switch {
			case tangents:
				r = positions[p-1]
			case spaces[i+1] == 0:
				r = positions[p+2]
			default:
				r = atan2(dy, dx)
			}
			r -= atan2(cc, a)
			if tip {
				cs, sn := cos(r), sin(r)
				length := bone.Data.Length
				boneX += (length*(cs*a-sn*cc) - dx) * rotateMix
				boneY += (length*(sn*a+cs*cc) - dy) * rotateMix
			} else {
				r += offsetRotation
			}
			rotateWorldRadians(bone, r, rotateMix)
		}
		bone.AppliedValid = false
	}
}

// computeWorldPositions 每个位置输出 x y 和切线角度
func (c *PathConstraint) computeWorldPositions(path *PathAttachment, spacesCount int, tangents, percentPosition, percentSpacing bool) []float32 {
	target := c.skeleton.Slots[c.Target]
	position := c.Position
	spaces := c.spaces
	c.positions = grow(c.positions, spacesCount*3+2)
	out := c.positions
	closed := path.Closed
	verticesLength := path.WorldVerticesLength
	curveCount := verticesLength / 6
	prevCurve := pathNone

	if !path.ConstantSpeed {
		lengths := path.Lengths
		if closed {
			curveCount--
		} else {
			curveCount -= 2
		}
		pathLength := lengths[curveCount]
		if percentPosition {
			position *= pathLength
		}
		if percentSpacing {
			for i := 1; i < spacesCount; i++ {
				spaces[i] *= pathLength
			}
		}
		c.world = grow(c.world, 8)
		world := c.world
		for i, o, curve := 0, 0, 0; i < spacesCount; i, o = i+1, o+3 {
			space := spaces[i]
			position += space
			p := position
			if closed {
				p = mod(p, pathLength)
				if p < 0 {
					p += pathLength
				}
				curve = 0
			} else if p < 0 {
				if prevCurve != pathBefore {
					prevCurve = pathBefore
					path.ComputeWorldVertices(target, 2, 4, world, 0, 2)
				}
				addBeforePosition(p, world, 0, out, o)
				continue
			} else if p > pathLength {
				if prevCurve != pathAfter {
					prevCurve = pathAfter
					path.ComputeWorldVertices(target, verticesLength-6, 4, world, 0, 2)
				}
				addAfterPosition(p-pathLength, world, 0, out, o)
				continue
			}
			for ; ; curve++ {
				length := lengths[curve]
				if p > length {
					continue
				}
				if curve == 0 {
					p /= length
				} else {
					prev := lengths[curve-1]
					p = (p - prev) / (length - prev)
				}
				break
			}
			if curve != prevCurve {
				prevCurve = curve
				if closed && curve == curveCount {
					path.ComputeWorldVertices(target, verticesLength-4, 4, world, 0, 2)
					path.ComputeWorldVertices(target, 0, 4, world, 4, 2)
				} else {
					path.ComputeWorldVertices(target, curve*6+2, 8, world, 0, 2)
				}
			}
			addCurvePosition(p, world[0], world[1], world[2], world[3], world[4], world[5], world[6], world[7], out, o,
				tangents || (i > 0 && space == 0))
		}
		return out
	}

	var world []float32
	if closed {
		verticesLength += 2
		c.world = grow(c.world, verticesLength)
		world = c.world
		path.ComputeWorldVertices(target, 2, verticesLength-4, world, 0, 2)
		path.ComputeWorldVertices(target, 0, 2, world, verticesLength-4, 2)
		world[verticesLength-2] = world[0]
		world[verticesLength-1] = world[1]
	} else {
		curveCount--
		verticesLength -= 4
		c.world = grow(c.world, verticesLength)
		world = c.world
		path.ComputeWorldVertices(target, 2, verticesLength, world, 0, 2)
	}

	// 每段曲线用 4 段折线估算长度
	c.curves = grow(c.curves, curveCount)
	curves := c.curves
	var pathLength float32
	x1, y1 := world[0], world[1]
	var cx1, cy1, cx2, cy2, x2, y2 float32
	for i, w := 0, 2; i < curveCount; i, w = i+1, w+6 {
		cx1, cy1 = world[w], world[w+1]
		cx2, cy2 = world[w+2], world[w+3]
		x2, y2 = world[w+4], world[w+5]
		tmpx := (x1 - cx1*2 + cx2) * 0.1875
		tmpy := (y1 - cy1*2 + cy2) * 0.1875
		dddfx := ((cx1-cx2)*3 - x1 + x2) * 0.09375
		dddfy := ((cy1-cy2)*3 - y1 + y2) * 0.09375
		ddfx := tmpx*2 + dddfx
		ddfy := tmpy*2 + dddfy
		dfx := (cx1-x1)*0.75 + tmpx + dddfx*0.16666667
		dfy := (cy1-y1)*0.75 + tmpy + dddfy*0.16666667
		pathLength += sqrt(dfx*dfx + dfy*dfy)
		dfx += ddfx
		dfy += ddfy
		ddfx += dddfx
		ddfy += dddfy
		pathLength += sqrt(dfx*dfx + dfy*dfy)
		dfx += ddfx
		dfy += ddfy
		pathLength += sqrt(dfx*dfx + dfy*dfy)
		dfx += ddfx + dddfx
		dfy += ddfy + dddfy
		pathLength += sqrt(dfx*dfx + dfy*dfy)
		curves[i] = pathLength
		x1, y1 = x2, y2
	}
	if percentPosition {
		position *= pathLength
	}
	if percentSpacing {
		for i := 1; i < spacesCount; i++ {
			spaces[i] *= pathLength
		}
	}

	segments := &c.segments
	var curveLength float32
	for i, o, curve, segment := 0, 0, 0, 0; i < spacesCount; i, o = i+1, o+3 {
		space := spaces[i]
		position += space
		p := position
		if closed {
			p = mod(p, pathLength)
			if p < 0 {
				p += pathLength
			}
			curve = 0
		} else if p < 0 {
			addBeforePosition(p, world, 0, out, o)
			continue
		} else if p > pathLength {
			addAfterPosition(p-pathLength, world, verticesLength-4, out, o)
			continue
		}
		for ; ; curve++ {
			length := curves[curve]
			if p > length {
				continue
			}
			if curve == 0 {
				p /= length
			} else {
				prev := curves[curve-1]
				p = (p - prev) / (length - prev)
			}
			break
		}

		// 当前曲线拆成 10 段，累计每段的长度
		if curve != prevCurve {
			prevCurve = curve
			ii := curve * 6
			x1, y1 = world[ii], world[ii+1]
			cx1, cy1 = world[ii+2], world[ii+3]
			cx2, cy2 = world[ii+4], world[ii+5]
			x2, y2 = world[ii+6], world[ii+7]
			tmpx := (x1 - cx1*2 + cx2) * 0.03
			tmpy := (y1 - cy1*2 + cy2) * 0.03
			dddfx := ((cx1-cx2)*3 - x1 + x2) * 0.006
			dddfy := ((cy1-cy2)*3 - y1 + y2) * 0.006
			ddfx := tmpx*2 + dddfx
			ddfy := tmpy*2 + dddfy
			dfx := (cx1-x1)*0.3 + tmpx + dddfx*0.16666667
			dfy := (cy1-y1)*0.3 + tmpy + dddfy*0.16666667
			curveLength = sqrt(dfx*dfx + dfy*dfy)
			segments[0] = curveLength
			for ii = 1; ii < 8; ii++ {
				dfx += ddfx
				dfy += ddfy
				ddfx += dddfx
				ddfy += dddfy
				curveLength += sqrt(dfx*dfx + dfy*dfy)
				segments[ii] = curveLength
			}
			dfx += ddfx
			dfy += ddfy
			curveLength += sqrt(dfx*dfx + dfy*dfy)
			segments[8] = curveLength
			dfx += ddfx + dddfx
			dfy += ddfy + dddfy
			curveLength += sqrt(dfx*dfx + dfy*dfy)
			segments[9] = curveLength
			segment = 0
		}

		p *= curveLength
		for ; ; segment++ {
			length := segments[segment]
			if p > length {
				continue
			}
			if segment == 0 {
				p /= length
			} else {
				prev := segments[segment-1]
				p = float32(segment) + (p-prev)/(length-prev)
			}
			break
		}
		addCurvePosition(p*0.1, x1, y1, cx1, cy1, cx2, cy2, x2, y2, out, o, tangents || (i > 0 && space == 0))
	}
	return out
}

func addBeforePosition(p float32, temp []float32, i int, out []float32, o int) {
	x1, y1 := temp[i], temp[i+1]
	r := atan2(temp[i+3]-y1, temp[i+2]-x1)
	out[o] = x1 + p*cos(r)
	out[o+1] = y1 + p*sin(r)
	out[o+2] = r
}

func addAfterPosition(p float32, temp []float32, i int, out []float32, o int) {
	x1, y1 := temp[i+2], temp[i+3]
	r := atan2(y1-temp[i+1], x1-temp[i])
	out[o] = x1 + p*cos(r)
	out[o+1] = y1 + p*sin(r)
	out[o+2] = r
}

// addCurvePosition 三次贝塞尔在 p 处的位置，tangents 为 true 时同时写入切线角度
func addCurvePosition(p, x1, y1, cx1, cy1, cx2, cy2, x2, y2 float32, out []float32, o int, tangents bool) {
	if p < epsilon || math.IsNaN(float64(p)) {
		out[o] = x1
		out[o+1] = y1
		out[o+2] = atan2(cy1-y1, cx1-x1)
		return
	}
	tt := p * p
	ttt := tt * p
	u := 1 - p
	uu := u * u
	uuu := uu * u
	ut := u * p
	ut3 := ut * 3
	uut3 := u * ut3
	utt3 := ut3 * p
	x := x1*uuu + cx1*uut3 + cx2*utt3 + x2*ttt
	y := y1*uuu + cy1*uut3 + cy2*utt3 + y2*ttt
	out[o] = x
	out[o+1] = y
	if !tangents {
		return
	}
	if p < 0.001 {
		out[o+2] = atan2(cy1-y1, cx1-x1)
	} else {
		out[o+2] = atan2(y-(y1*uu+cy1*ut*2+cy2*tt), x-(x1*uu+cx1*ut*2+cx2*tt))
	}
}
