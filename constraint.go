package spine

import "sort"

// Constraint 运行时约束，mix 等系数由约束时间线每帧写入
type Constraint interface {
	Updatable
	Apply()
	SetToSetupPose()
	ConstraintData() ConstraintData
}

// Constraints 按 order 排序，与 UpdateCache 中约束的相对顺序一致
func (s *Skeleton) Constraints() []Constraint {
	res := make([]Constraint, 0, len(s.IkConstraints)+len(s.TransformConstraints)+len(s.PathConstraints))
	for _, item := range s.IkConstraints {
		res = append(res, item)
	}
	for _, item := range s.TransformConstraints {
		res = append(res, item)
	}
	for _, item := range s.PathConstraints {
		res = append(res, item)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].ConstraintData().ConstraintOrder() < res[j].ConstraintData().ConstraintOrder()
	})
	return res
}

// FindConstraint 不区分约束种类按名称查找
func (s *Skeleton) FindConstraint(name string) Constraint {
	for _, item := range s.Constraints() {
		if item.ConstraintData().ConstraintName() == name {
			return item
		}
	}
	return nil
}

// rotateWorldRadians 旋转世界矩阵 r 弧度，r 先规整到 [-PI, PI] 再乘 mix
func rotateWorldRadians(bone *Bone, r, mix float32) {
	r = wrapRadians(r) * mix
	c, s := cos(r), sin(r)
	a, b, cc, d := bone.A, bone.B, bone.C, bone.D
	bone.A = c*a - s*cc
	bone.B = c*b - s*d
	bone.C = s*a + c*cc
	bone.D = s*b + c*d
}

// reflectDegRad 目标矩阵有镜像时偏移角取反
func reflectDegRad(bone *Bone) float32 {
	if bone.A*bone.D-bone.B*bone.C > 0 {
		return degRad
	}
	return -degRad
}
